package dna

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Region is a half-open genomic interval [Start0b, End0bExclusive) on Chrom.
type Region struct {
	Chrom          string
	Start0b        uint64
	End0bExclusive uint64
}

// NewRegion constructs a Region, rejecting an inverted or empty interval.
func NewRegion(chrom string, start, end uint64) (Region, error) {
	if end <= start {
		return Region{}, errors.Errorf("region end %d must be greater than start %d", end, start)
	}
	return Region{Chrom: chrom, Start0b: start, End0bExclusive: end}, nil
}

// ParseRegion parses the "chrom:start-end" form used throughout the CLI.
func ParseRegion(s string) (Region, error) {
	if s == "" {
		return Region{}, errors.New("empty region")
	}
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return Region{}, errors.Errorf("invalid region %q, want chrom:start-end", s)
	}
	chrom := s[:colon]
	rest := s[colon+1:]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return Region{}, errors.Errorf("invalid region %q, want chrom:start-end", s)
	}
	start, err := strconv.ParseUint(rest[:dash], 10, 64)
	if err != nil {
		return Region{}, errors.Wrapf(err, "invalid region start in %q", s)
	}
	end, err := strconv.ParseUint(rest[dash+1:], 10, 64)
	if err != nil {
		return Region{}, errors.Wrapf(err, "invalid region end in %q", s)
	}
	return NewRegion(chrom, start, end)
}

// ParseBedLine parses the first three tab-separated fields of a BED line
// into a Region, ignoring any further columns.
func ParseBedLine(line string) (Region, error) {
	if line == "" {
		return Region{}, errors.New("empty bed line")
	}
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return Region{}, errors.Errorf("bed line %q has fewer than 3 fields", line)
	}
	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Region{}, errors.Wrapf(err, "invalid bed start in %q", line)
	}
	end, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Region{}, errors.Wrapf(err, "invalid bed end in %q", line)
	}
	return NewRegion(fields[0], start, end)
}

// Overlaps reports whether r and other, on the same chromosome, share at
// least one base or touch at a boundary: two intervals where one's end
// equals the other's start count as overlapping, matching the upstream
// region-filter semantics this pipeline was distilled from.
func (r Region) Overlaps(other Region) bool {
	if r.Chrom != other.Chrom {
		return false
	}
	return overlaps(r.Start0b, r.End0bExclusive, other.Start0b, other.End0bExclusive)
}

func overlaps(aStart, aEnd, bStart, bEnd uint64) bool {
	return (bStart <= aStart && aStart <= bEnd) ||
		(bStart <= aEnd && aEnd <= bEnd) ||
		(bStart <= aStart && aEnd <= bEnd) ||
		(aStart <= bStart && bEnd <= aEnd)
}

// OverlapLength returns the number of bases r and other share, 0 if none.
func (r Region) OverlapLength(other Region) uint64 {
	if r.Chrom != other.Chrom {
		return 0
	}
	start := r.Start0b
	if other.Start0b > start {
		start = other.Start0b
	}
	end := r.End0bExclusive
	if other.End0bExclusive < end {
		end = other.End0bExclusive
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Len returns the width of the region in bases.
func (r Region) Len() uint64 {
	return r.End0bExclusive - r.Start0b
}

// String renders the region in chrom:start-end form.
func (r Region) String() string {
	return r.Chrom + ":" + strconv.FormatUint(r.Start0b, 10) + "-" + strconv.FormatUint(r.End0bExclusive, 10)
}
