package access

import "testing"

func TestCanAccessChapter(t *testing.T) {
	anonymous := Reader{}
	noProfile := Reader{Authenticated: true}
	free := Reader{Authenticated: true, HasProfile: true}
	premium := Reader{Authenticated: true, HasProfile: true, Premium: true}

	tests := []struct {
		name     string
		reader   Reader
		isFree   bool
		chapter  int
		expected bool
	}{
		{"anonymous free book", anonymous, true, 9, true},
		{"anonymous premium book", anonymous, false, 1, false},
		{"no profile premium book", noProfile, false, 1, false},
		{"no profile free book", noProfile, true, 3, true},
		{"premium reader", premium, false, 40, true},
		{"free reader free book", free, true, 40, true},
		{"free reader first chapter", free, false, 1, true},
		{"free reader second chapter", free, false, 2, true},
		{"free reader third chapter", free, false, 3, false},
		{"free reader chapter zero", free, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := CanAccessChapter(tt.reader, tt.isFree, tt.chapter); result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		reader   Reader
		expected string
	}{
		{Reader{}, "anonymous"},
		{Reader{Authenticated: true}, "anonymous"},
		{Reader{Authenticated: true, HasProfile: true}, "free"},
		{Reader{Authenticated: true, HasProfile: true, Premium: true}, "premium"},
	}
	for _, tt := range tests {
		if result := tt.reader.Tier(); result != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, result)
		}
	}
}
