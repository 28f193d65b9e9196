package notify

import (
    "reflect"
    "testing"

    "github.com/HamedShams/advisory-pulse/internal/domain"
)

func adv(id, title string, labels ...string) domain.Advisory {
    return domain.Advisory{ID: id, Title: title, State: "draft", Labels: labels}
}

func TestComputeDelta_AllNewOnFirstRun(t *testing.T) {
    current := []domain.Advisory{adv("GHSA-0002", "second"), adv("GHSA-0001", "first")}
    d := ComputeDelta(current, map[string]string{})

    if len(d.ToNotify) != 2 { t.Fatalf("expected 2 to notify, got %d", len(d.ToNotify)) }
    // ascending id order regardless of fetch order
    if d.ToNotify[0].ID != "GHSA-0001" || d.ToNotify[1].ID != "GHSA-0002" {
        t.Fatalf("bad ordering: %s, %s", d.ToNotify[0].ID, d.ToNotify[1].ID)
    }
    for _, a := range current {
        if d.Next[a.ID] != Fingerprint(a) { t.Fatalf("next state missing fingerprint for %s", a.ID) }
        if d.Reasons[a.ID] != ReasonNew { t.Fatalf("expected reason new for %s", a.ID) }
    }
}

func TestComputeDelta_UnchangedIsQuiet(t *testing.T) {
    a := adv("GHSA-0001", "title", "CWE-79")
    prior := map[string]string{a.ID: Fingerprint(a)}
    d := ComputeDelta([]domain.Advisory{a}, prior)
    if len(d.ToNotify) != 0 { t.Fatalf("expected nothing to notify, got %d", len(d.ToNotify)) }
    if !reflect.DeepEqual(d.Next, prior) { t.Fatalf("next state drifted: %#v", d.Next) }
}

func TestComputeDelta_ChangedLabelsRenotifies(t *testing.T) {
    old := adv("GHSA-0001", "title", "CWE-79")
    prior := map[string]string{old.ID: Fingerprint(old)}

    changed := adv("GHSA-0001", "title", "CWE-79", "CWE-89")
    d := ComputeDelta([]domain.Advisory{changed}, prior)
    if len(d.ToNotify) != 1 || d.ToNotify[0].ID != "GHSA-0001" {
        t.Fatalf("expected GHSA-0001 to notify, got %#v", d.ToNotify)
    }
    if d.Reasons["GHSA-0001"] != ReasonChanged { t.Fatalf("expected reason changed") }
    if d.Next["GHSA-0001"] != Fingerprint(changed) { t.Fatalf("next state kept the stale fingerprint") }
}

func TestComputeDelta_AbsentIdsAreKept(t *testing.T) {
    prior := map[string]string{"GHSA-gone": "fp-old"}
    d := ComputeDelta(nil, prior)
    if d.Next["GHSA-gone"] != "fp-old" {
        t.Fatalf("id absent from fetch must stay in state, got %#v", d.Next)
    }
    if len(d.ToNotify) != 0 { t.Fatalf("nothing should be notified") }
}

func TestComputeDelta_SecondRunIsIdempotent(t *testing.T) {
    current := []domain.Advisory{adv("GHSA-0001", "a"), adv("GHSA-0002", "b", "CWE-20")}
    first := ComputeDelta(current, map[string]string{})
    second := ComputeDelta(current, first.Next)
    if len(second.ToNotify) != 0 {
        t.Fatalf("second run with unchanged fetch notified %d advisories", len(second.ToNotify))
    }
}

func TestFingerprint_LabelOrderIndependent(t *testing.T) {
    a := adv("GHSA-0001", "t", "CWE-1", "CWE-2")
    b := adv("GHSA-0001", "t", "CWE-2", "CWE-1")
    if Fingerprint(a) != Fingerprint(b) { t.Fatalf("label reordering changed the fingerprint") }
}

func TestFingerprint_SensitiveToTitleStateLabels(t *testing.T) {
    base := adv("GHSA-0001", "t", "CWE-1")
    cases := []domain.Advisory{
        adv("GHSA-0001", "other", "CWE-1"),
        {ID: "GHSA-0001", Title: "t", State: "triage", Labels: []string{"CWE-1"}},
        adv("GHSA-0001", "t", "CWE-2"),
    }
    for i, c := range cases {
        if Fingerprint(c) == Fingerprint(base) { t.Fatalf("case %d should change the fingerprint", i) }
    }
}
