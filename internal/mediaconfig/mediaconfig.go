package mediaconfig

import (
	"fmt"

	"transcode-service/internal/mediatypes"
)

// Profile is one named output target for a media kind: a resolution (or
// bitrate cap for audio), an output container and a notification flag.
// Profiles are immutable and defined at startup.
type Profile struct {
	Name string
	// Width and Height bound the output; zero means not dimension-bound
	Width  int
	Height int
	// Ext is the output container/format extension, without the dot
	Ext string
	// MaxBitrate caps audio encoding, in kbit/s. Zero for non-audio.
	MaxBitrate int
	// Notify tells downstream consumers to fire a "media ready" signal when
	// this version lands. Preview-only artifacts (thumbnails) leave it off.
	Notify bool
}

// Catalog order is priority order: cheap-and-fast profiles first, then
// increasing resolution. Priorities are assigned from the ordinal position
// when work items are built, so the lists below are the single source of
// ordering truth.

// VideoThumbProfiles produce a poster frame for a video. Kept on a separate
// queue so thumbnails never wait behind full re-encodes.
var VideoThumbProfiles = []Profile{
	{Name: "thumb", Width: 640, Height: 360, Ext: "jpg", Notify: false},
}

// VideoProfiles re-encode a video at increasing resolutions.
var VideoProfiles = []Profile{
	{Name: "360", Width: 640, Height: 360, Ext: "mp4", Notify: true},
	{Name: "720", Width: 1280, Height: 720, Ext: "mp4", Notify: true},
	{Name: "1080", Width: 1920, Height: 1080, Ext: "mp4", Notify: true},
}

// ImageProfiles resize an image for list display, half-screen and
// fullscreen use.
var ImageProfiles = []Profile{
	{Name: "thumb", Width: 640, Height: 480, Ext: "jpg", Notify: false},
	{Name: "720", Width: 1280, Height: 720, Ext: "jpg", Notify: true},
	{Name: "1080", Width: 1920, Height: 1080, Ext: "jpg", Notify: true},
}

// AudioProfiles re-encode audio as AAC in an m4a container.
var AudioProfiles = []Profile{
	{Name: "std", MaxBitrate: 128, Ext: "m4a", Notify: true},
}

// ProfilesFor returns the ordered profile list for a media kind. Note that
// video kinds additionally get VideoThumbProfiles on their own queue; see
// the coordinator.
func ProfilesFor(kind mediatypes.Kind) ([]Profile, error) {
	switch kind {
	case mediatypes.KindVideo:
		return VideoProfiles, nil
	case mediatypes.KindImage:
		return ImageProfiles, nil
	case mediatypes.KindAudio:
		return AudioProfiles, nil
	}
	return nil, fmt.Errorf("%w: %q", mediatypes.ErrUnknownMediaKind, kind)
}

func (p Profile) String() string {
	if p.Width > 0 {
		return fmt.Sprintf("%s (%dx%d %s)", p.Name, p.Width, p.Height, p.Ext)
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Ext)
}
