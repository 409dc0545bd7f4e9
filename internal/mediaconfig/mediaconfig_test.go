package mediaconfig

import (
	"errors"
	"testing"

	"transcode-service/internal/mediatypes"
)

func TestProfilesFor(t *testing.T) {
	tests := []struct {
		kind      mediatypes.Kind
		wantNames []string
	}{
		{mediatypes.KindVideo, []string{"360", "720", "1080"}},
		{mediatypes.KindImage, []string{"thumb", "720", "1080"}},
		{mediatypes.KindAudio, []string{"std"}},
	}

	for _, tt := range tests {
		profiles, err := ProfilesFor(tt.kind)
		if err != nil {
			t.Fatalf("ProfilesFor(%s) error: %v", tt.kind, err)
		}
		if len(profiles) != len(tt.wantNames) {
			t.Fatalf("ProfilesFor(%s) returned %d profiles, want %d", tt.kind, len(profiles), len(tt.wantNames))
		}
		for i, name := range tt.wantNames {
			if profiles[i].Name != name {
				t.Errorf("ProfilesFor(%s)[%d].Name = %q, want %q", tt.kind, i, profiles[i].Name, name)
			}
		}
	}
}

func TestProfilesForUnknownKind(t *testing.T) {
	_, err := ProfilesFor(mediatypes.Kind("pdf"))
	if !errors.Is(err, mediatypes.ErrUnknownMediaKind) {
		t.Errorf("ProfilesFor(pdf) error = %v, want ErrUnknownMediaKind", err)
	}
}

func TestThumbnailProfilesDoNotNotify(t *testing.T) {
	// Preview-only artifacts must not fire a premature "media ready" signal.
	for _, p := range VideoThumbProfiles {
		if p.Notify {
			t.Errorf("video thumb profile %q has Notify set", p.Name)
		}
	}
	if ImageProfiles[0].Name != "thumb" {
		t.Fatalf("expected first image profile to be thumb, got %q", ImageProfiles[0].Name)
	}
	if ImageProfiles[0].Notify {
		t.Error("image thumb profile has Notify set")
	}
	// All substantive profiles default to notifying.
	for _, p := range ImageProfiles[1:] {
		if !p.Notify {
			t.Errorf("image profile %q should notify", p.Name)
		}
	}
	for _, p := range VideoProfiles {
		if !p.Notify {
			t.Errorf("video profile %q should notify", p.Name)
		}
	}
}

func TestProfileNamesDistinct(t *testing.T) {
	for _, list := range [][]Profile{VideoThumbProfiles, VideoProfiles, ImageProfiles, AudioProfiles} {
		seen := make(map[string]bool)
		for _, p := range list {
			if seen[p.Name] {
				t.Errorf("duplicate profile name %q", p.Name)
			}
			seen[p.Name] = true
		}
	}
}
