package types

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownPlatformField replaces a missing os or architecture in a platform string.
const UnknownPlatformField = "unknown"

// HarborRepository is one element of GET /projects/{project}/repositories.
type HarborRepository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ArtifactCount int64  `json:"artifact_count"`
	PullCount     int64  `json:"pull_count"`
	UpdateTime    string `json:"update_time"`
}

type HarborTag struct {
	Name     string `json:"name"`
	PushTime string `json:"push_time"`
}

type HarborPlatform struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	Variant      string `json:"variant,omitempty"`
}

type HarborReference struct {
	ChildDigest string          `json:"child_digest"`
	Platform    *HarborPlatform `json:"platform"`
}

// HarborArtifact is one element of GET /projects/{project}/repositories/{repo}/artifacts.
type HarborArtifact struct {
	Digest            string            `json:"digest"`
	PushTime          string            `json:"push_time"`
	Size              int64             `json:"size"`
	Type              string            `json:"type"`
	ManifestMediaType string            `json:"manifest_media_type"`
	Tags              []HarborTag       `json:"tags"`
	References        []HarborReference `json:"references"`
}

// ArtifactRecord is the canonical unit produced by discovery and consumed by migration.
// (Project, Repository, Digest) identifies a record within one discovery run.
type ArtifactRecord struct {
	Project           string   `json:"project"`
	Repository        string   `json:"repository"`
	Digest            string   `json:"digest"`
	PushTime          string   `json:"push_time"`
	ManifestMediaType string   `json:"manifest_media_type"`
	Tags              []string `json:"tags"`
	Platforms         []string `json:"platforms"`
	Size              int64    `json:"size"`
	Type              string   `json:"type,omitempty"`
}

// NewArtifactRecord normalizes a Harbor API artifact into a record.
func NewArtifactRecord(project, repository string, a HarborArtifact) (ArtifactRecord, error) {
	rec := ArtifactRecord{
		Project:           project,
		Repository:        repository,
		Digest:            a.Digest,
		PushTime:          a.PushTime,
		ManifestMediaType: a.ManifestMediaType,
		Tags:              make([]string, 0, len(a.Tags)),
		Platforms:         Platforms(a.References),
		Size:              a.Size,
		Type:              a.Type,
	}
	for _, t := range a.Tags {
		if t.Name == "" {
			continue
		}
		rec.Tags = append(rec.Tags, t.Name)
	}
	if err := rec.Validate(); err != nil {
		return ArtifactRecord{}, err
	}
	return rec, nil
}

// Validate checks the fields every consumer relies on.
func (r ArtifactRecord) Validate() error {
	switch {
	case r.Project == "":
		return fmt.Errorf("%w: project is empty", ErrInvalidRecord)
	case r.Repository == "":
		return fmt.Errorf("%w: repository is empty", ErrInvalidRecord)
	case r.Digest == "":
		return fmt.Errorf("%w: digest is empty for %s/%s", ErrInvalidRecord, r.Project, r.Repository)
	}
	for _, t := range r.Tags {
		if t == "" {
			return fmt.Errorf("%w: empty tag on %s", ErrInvalidRecord, r.Reference())
		}
	}
	return nil
}

// Reference renders project/repository@digest.
func (r ArtifactRecord) Reference() string {
	return r.Project + "/" + r.Repository + "@" + r.Digest
}

// Platforms formats each reference platform as "<os>/<architecture>" and returns the
// distinct values in sorted order. References without a platform are ignored.
func Platforms(refs []HarborReference) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Platform == nil {
			continue
		}
		p := platformString(ref.Platform)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func platformString(p *HarborPlatform) string {
	os, arch := strings.TrimSpace(p.OS), strings.TrimSpace(p.Architecture)
	if os == "" {
		os = UnknownPlatformField
	}
	if arch == "" {
		arch = UnknownPlatformField
	}
	return os + "/" + arch
}
