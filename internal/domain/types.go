package domain

import "time"

// Advisory is one security advisory as fetched from the tracker.
// Immutable once fetched within a run.
type Advisory struct {
    ID            string
    Title         string
    URL           string
    State         string
    Labels        []string
    UpdatedAt     *time.Time
    Collaborators []string
}

// Assignment is one on-call shift. End is exclusive; Seq matches
// chronological order.
type Assignment struct {
    Person string    `yaml:"person"`
    Start  time.Time `yaml:"start"`
    End    time.Time `yaml:"end"`
    Seq    int       `yaml:"seq"`
}

// Schedule is the persisted rotation: the ordered member pool plus the
// ordered shift history. Assignments are contiguous and non-overlapping.
type Schedule struct {
    Pool        []string     `yaml:"pool"`
    Assignments []Assignment `yaml:"assignments"`
}
