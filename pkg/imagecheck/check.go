// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package imagecheck

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"sort"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/sync/errgroup"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/presnap/pkg/defaults"
	apperrors "github.com/NVIDIA/presnap/pkg/errors"
)

// Status classifies one checked image.
type Status string

const (
	// StatusFresh means the registry digest matches the recorded digest.
	StatusFresh Status = "fresh"
	// StatusStale means the registry serves a different digest.
	StatusStale Status = "stale"
	// StatusUnresolvable means the reference could not be parsed or resolved.
	StatusUnresolvable Status = "unresolvable"
)

// maxConcurrentResolves bounds parallel registry round-trips.
const maxConcurrentResolves = 4

// Entry is the check outcome for a single image reference.
type Entry struct {
	// Reference is the image reference as given.
	Reference string `json:"reference" yaml:"reference"`
	// Recorded is the locally recorded digest.
	Recorded string `json:"recorded" yaml:"recorded"`
	// Current is the digest the registry serves now. Empty when unresolvable.
	Current string `json:"current,omitempty" yaml:"current,omitempty"`
	// Status classifies the outcome.
	Status Status `json:"status" yaml:"status"`
	// Error carries the resolution failure for unresolvable entries.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the outcome of one freshness check, sorted by reference.
type Report struct {
	Entries []Entry `json:"entries" yaml:"entries"`
	// Stale counts entries whose registry digest changed.
	Stale int `json:"stale" yaml:"stale"`
	// Unresolvable counts entries that could not be checked.
	Unresolvable int `json:"unresolvable" yaml:"unresolvable"`
}

// Resolver looks up the digest a registry currently serves for a reference.
type Resolver interface {
	ResolveDigest(ctx context.Context, ref string) (string, error)
}

// Check resolves every image concurrently and classifies each against its
// recorded digest. It never returns an error for individual images; only a
// canceled context aborts the whole check.
func Check(ctx context.Context, r Resolver, images map[string]string) (*Report, error) {
	refs := make([]string, 0, len(images))
	for ref := range images {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	entries := make([]Entry, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolves)

	for i, ref := range refs {
		g.Go(func() error {
			entries[i] = checkOne(gctx, r, ref, images[ref])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport, "image check aborted", err)
	}

	rep := &Report{Entries: entries}
	for _, e := range entries {
		switch e.Status {
		case StatusStale:
			rep.Stale++
		case StatusUnresolvable:
			rep.Unresolvable++
		}
	}
	return rep, nil
}

func checkOne(ctx context.Context, r Resolver, ref, recorded string) Entry {
	e := Entry{Reference: ref, Recorded: recorded}

	current, err := r.ResolveDigest(ctx, ref)
	if err != nil {
		e.Status = StatusUnresolvable
		e.Error = err.Error()
		slog.Warn("image digest could not be resolved", "reference", ref, "error", err)
		return e
	}

	e.Current = current
	if current == recorded {
		e.Status = StatusFresh
	} else {
		e.Status = StatusStale
		slog.Info("image is stale",
			"reference", ref, "recorded", recorded, "current", current)
	}
	return e
}

// RegistryResolver resolves digests over the registry API using Docker
// credentials when available.
type RegistryResolver struct {
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// ResolveDigest returns the manifest digest the registry serves for ref.
func (r *RegistryResolver) ResolveDigest(ctx context.Context, ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeConfig, "invalid image reference", err)
	}
	named = reference.TagNameOnly(named)

	// Resolve by tag, or by digest for pinned references.
	target := "latest"
	if tagged, ok := named.(reference.Tagged); ok {
		target = tagged.Tag()
	}
	if canonical, ok := named.(reference.Canonical); ok {
		target = canonical.Digest().String()
	}

	repo, err := remote.NewRepository(named.Name())
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeTransport, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = r.PlainHTTP
	repo.Client = r.authClient()

	rctx, cancel := context.WithTimeout(ctx, defaults.RegistryTimeout)
	defer cancel()

	var desc ociv1.Descriptor
	if desc, err = repo.Resolve(rctx, target); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeTransport, "failed to resolve image reference", err)
	}
	return desc.Digest.String(), nil
}

func (r *RegistryResolver) authClient() *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !r.PlainHTTP && r.InsecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
