package rotation

import (
    "errors"
    "reflect"
    "testing"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/domain"
)

var day0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.Add(time.Duration(n) * 24 * time.Hour) }

const week = 7 * 24 * time.Hour

func TestExtend_BootstrapFillsHorizon(t *testing.T) {
    s := domain.Schedule{Pool: []string{"alice", "bob", "carol"}}
    out, err := Extend(s, day0, 21*24*time.Hour, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }

    want := []domain.Assignment{
        {Person: "alice", Start: day(0), End: day(7), Seq: 0},
        {Person: "bob", Start: day(7), End: day(14), Seq: 1},
        {Person: "carol", Start: day(14), End: day(21), Seq: 2},
    }
    if !reflect.DeepEqual(out.Assignments, want) {
        t.Fatalf("unexpected assignments: %#v", out.Assignments)
    }
}

func TestExtend_Contiguity(t *testing.T) {
    s := domain.Schedule{Pool: []string{"a", "b", "c", "d"}}
    out, err := Extend(s, day0, 100*24*time.Hour, 3*24*time.Hour)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    for i := 1; i < len(out.Assignments); i++ {
        prev, cur := out.Assignments[i-1], out.Assignments[i]
        if !prev.End.Equal(cur.Start) {
            t.Fatalf("gap or overlap between %d and %d: %v != %v", i-1, i, prev.End, cur.Start)
        }
        if cur.Seq != prev.Seq+1 { t.Fatalf("seq out of order at %d", i) }
    }
}

func TestExtend_FairnessOverFullCycles(t *testing.T) {
    pool := []string{"a", "b", "c"}
    const k = 4
    s := domain.Schedule{Pool: pool}
    out, err := Extend(s, day0, time.Duration(k*len(pool))*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if len(out.Assignments) != k*len(pool) {
        t.Fatalf("expected %d assignments, got %d", k*len(pool), len(out.Assignments))
    }
    counts := map[string]int{}
    for _, a := range out.Assignments { counts[a.Person]++ }
    for _, p := range pool {
        if counts[p] != k { t.Fatalf("member %s served %d times, want %d", p, counts[p], k) }
    }
}

func TestExtend_Deterministic(t *testing.T) {
    s := domain.Schedule{
        Pool: []string{"x", "y"},
        Assignments: []domain.Assignment{{Person: "x", Start: day(0), End: day(14), Seq: 0}},
    }
    out1, err := Extend(s, day(10), 8*week, 2*week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    out2, err := Extend(s, day(10), 8*week, 2*week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if !reflect.DeepEqual(out1, out2) { t.Fatalf("two identical calls produced different schedules") }
}

func TestExtend_IdempotentWhenHorizonCovered(t *testing.T) {
    s := domain.Schedule{Pool: []string{"a", "b"}}
    out, err := Extend(s, day0, 4*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    again, err := Extend(out, day0, 4*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if len(again.Assignments) != len(out.Assignments) {
        t.Fatalf("re-run before the horizon moved appended %d extra assignments", len(again.Assignments)-len(out.Assignments))
    }
}

func TestExtend_ResumesAfterTailPerson(t *testing.T) {
    s := domain.Schedule{
        Pool: []string{"a", "b", "c"},
        Assignments: []domain.Assignment{{Person: "b", Start: day(0), End: day(7), Seq: 0}},
    }
    out, err := Extend(s, day(0), 2*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if got := out.Assignments[1].Person; got != "c" { t.Fatalf("expected c after b, got %s", got) }
    // history untouched
    if !reflect.DeepEqual(out.Assignments[0], s.Assignments[0]) {
        t.Fatalf("existing assignment was rewritten: %#v", out.Assignments[0])
    }
}

func TestExtend_TailPersonGoneRestartsAtFront(t *testing.T) {
    s := domain.Schedule{
        Pool: []string{"a", "b"},
        Assignments: []domain.Assignment{{Person: "departed", Start: day(0), End: day(7), Seq: 0}},
    }
    out, err := Extend(s, day(0), week+24*time.Hour, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if got := out.Assignments[1].Person; got != "a" { t.Fatalf("expected a, got %s", got) }
}

func TestExtend_SingleMemberPool(t *testing.T) {
    s := domain.Schedule{Pool: []string{"solo"}}
    out, err := Extend(s, day0, 3*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    for _, a := range out.Assignments {
        if a.Person != "solo" { t.Fatalf("unexpected person %s", a.Person) }
    }
}

func TestExtend_EmptyPool(t *testing.T) {
    s := domain.Schedule{}
    out, err := Extend(s, day0, week, week)
    if !errors.Is(err, ErrEmptyPool) { t.Fatalf("expected ErrEmptyPool, got %v", err) }
    if len(out.Assignments) != 0 { t.Fatalf("schedule mutated on error") }
}

func TestExtend_NonPositivePeriod(t *testing.T) {
    s := domain.Schedule{Pool: []string{"a"}}
    for _, period := range []time.Duration{0, -week} {
        if _, err := Extend(s, day0, week, period); !errors.Is(err, ErrBadPeriod) {
            t.Fatalf("period %v: expected ErrBadPeriod, got %v", period, err)
        }
    }
}

func TestExtend_SeqContinuesFromTail(t *testing.T) {
    // hand-edited schedules can have Seq values out of step with the
    // slice indices; appended assignments continue from the tail's Seq
    s := domain.Schedule{
        Pool: []string{"a", "b"},
        Assignments: []domain.Assignment{{Person: "a", Start: day(0), End: day(7), Seq: 7}},
    }
    out, err := Extend(s, day(0), 3*week, week)
    if err != nil { t.Fatalf("Extend failed: %v", err) }
    if len(out.Assignments) < 2 { t.Fatalf("nothing appended: %#v", out.Assignments) }
    for i, a := range out.Assignments[1:] {
        if a.Seq != 8+i { t.Fatalf("appended assignment %d has seq %d, want %d", i, a.Seq, 8+i) }
    }
}

func TestCurrent(t *testing.T) {
    s := domain.Schedule{
        Pool: []string{"a", "b"},
        Assignments: []domain.Assignment{
            {Person: "a", Start: day(0), End: day(7), Seq: 0},
            {Person: "b", Start: day(7), End: day(14), Seq: 1},
        },
    }
    cur, ok := Current(s, day(8))
    if !ok || cur.Person != "b" { t.Fatalf("expected b on shift, got %#v ok=%v", cur, ok) }
    if _, ok := Current(s, day(20)); ok { t.Fatalf("expected no one on shift after schedule end") }
    // end is exclusive: exactly day(7) belongs to the second shift
    cur, ok = Current(s, day(7))
    if !ok || cur.Person != "b" { t.Fatalf("boundary should belong to the next shift, got %#v", cur) }
}

func TestTailStart(t *testing.T) {
    if !TailStart(domain.Schedule{}).IsZero() { t.Fatalf("empty schedule should have zero tail start") }
    s := domain.Schedule{Assignments: []domain.Assignment{{Person: "a", Start: day(3), End: day(10)}}}
    if got := TailStart(s); !got.Equal(day(3)) { t.Fatalf("got %v", got) }
}
