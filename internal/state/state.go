/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package state owns the single persisted file shared by the notifier and
// the rotation extender. The file is YAML so operators can diff it and keep
// it under version control; map keys marshal in sorted order, which keeps
// diffs stable across runs.
package state

import (
    "errors"
    "fmt"
    "os"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/domain"
    "gopkg.in/yaml.v3"
)

// ErrCorrupt wraps any parse failure of an existing state file. Requires
// operator intervention; never auto-healed.
var ErrCorrupt = errors.New("state: corrupt file")

type File struct {
    // Notified maps advisory id to the fingerprint last successfully
    // emailed. Ids absent from a later fetch are kept, never pruned.
    Notified map[string]string `yaml:"notified"`
    Rotation domain.Schedule   `yaml:"rotation"`
    // LastRotationAlert tracks the last "rotation running short" nag so we
    // alert at most once per interval.
    LastRotationAlert *time.Time `yaml:"last_rotation_alert,omitempty"`
}

func Empty() File {
    return File{Notified: map[string]string{}}
}

// Load reads the state file at path. A missing file is the first-run case
// and yields empty state; a present-but-unparsable file is ErrCorrupt.
func Load(path string) (File, error) {
    b, err := os.ReadFile(path)
    if err != nil {
        if os.IsNotExist(err) { return Empty(), nil }
        return File{}, fmt.Errorf("state: read %s: %w", path, err)
    }
    var f File
    if err := yaml.Unmarshal(b, &f); err != nil {
        return File{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
    }
    if f.Notified == nil { f.Notified = map[string]string{} }
    return f, nil
}

// Save writes atomically via a temp file and rename, so a crash mid-write
// never leaves a half-written state file behind.
func (f File) Save(path string) error {
    b, err := yaml.Marshal(f)
    if err != nil { return fmt.Errorf("state: marshal: %w", err) }
    tmp := path + ".tmp"
    if err := os.WriteFile(tmp, b, 0o644); err != nil {
        return fmt.Errorf("state: write %s: %w", tmp, err)
    }
    if err := os.Rename(tmp, path); err != nil {
        _ = os.Remove(tmp)
        return fmt.Errorf("state: rename %s: %w", path, err)
    }
    return nil
}
