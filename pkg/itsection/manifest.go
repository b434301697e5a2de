package itsection

import "time"

// Manifest is a module's optional self-description, matching
// module-info-parser's manifest field set: authors, version,
// description, repository and build time, each stored as a
// length-prefixed UTF-8 string in the wire format.
type Manifest struct {
	Authors     string
	Version     string
	Description string
	Repository  string
	BuildTime   string
}

// ParseManifest decodes the manifest custom section's content.
func ParseManifest(raw []byte) (Manifest, error) {
	r := newReader(raw)
	authors, err := r.str()
	if err != nil {
		return Manifest{}, err
	}
	version, err := r.str()
	if err != nil {
		return Manifest{}, err
	}
	description, err := r.str()
	if err != nil {
		return Manifest{}, err
	}
	repository, err := r.str()
	if err != nil {
		return Manifest{}, err
	}
	buildTime, err := r.str()
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Authors:     authors,
		Version:     version,
		Description: description,
		Repository:  repository,
		BuildTime:   buildTime,
	}, nil
}

// EmbedManifest encodes m back into wire format.
func EmbedManifest(m Manifest) []byte {
	w := &writer{}
	w.str(m.Authors)
	w.str(m.Version)
	w.str(m.Description)
	w.str(m.Repository)
	w.str(m.BuildTime)
	return w.buf
}

// ExtractManifest returns the module's manifest section, decoded.
func ExtractManifest(sections []CustomSection) (Manifest, error) {
	s, err := ExtractOne(sections, ManifestSectionName, ErrNoManifestSection, ErrMultipleITSections)
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(s.Content)
}

// NewManifest stamps BuildTime with the current time in RFC3339, for
// a manifest describing a freshly built module rather than one
// extracted from an existing binary.
func NewManifest(authors, version, description, repository string) Manifest {
	return Manifest{
		Authors:     authors,
		Version:     version,
		Description: description,
		Repository:  repository,
		BuildTime:   time.Now().UTC().Format(time.RFC3339),
	}
}
