package scoremodel

import (
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

var (
	mmTag      = sam.Tag{'M', 'm'}
	mlTag      = sam.Tag{'M', 'l'}
	mmTagUpper = sam.Tag{'M', 'M'}
	mlTagUpper = sam.Tag{'M', 'L'}
)

// ExtractModProbs parses rec's Mm/MM and Ml/ML base-modification tags and
// returns the probability stream for every modifiable base tagged with
// modID. ok is false if either tag is absent; such reads stay unscored
// rather than failing the run.
func ExtractModProbs(rec *sam.Record, modID string) (probs []float64, ok bool, err error) {
	mm, ok := auxString(rec, mmTag, mmTagUpper)
	if !ok {
		return nil, false, nil
	}
	ml, ok := auxBytes(rec, mlTag, mlTagUpper)
	if !ok {
		return nil, false, nil
	}

	var mlIdx int
	for _, entry := range strings.Split(mm, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, ",")
		header := fields[0]
		// header is "<base><strand><mod_id>", e.g. "C+m" or "A+a".
		if len(header) < 3 {
			return nil, false, errors.Errorf("malformed Mm/MM entry %q", entry)
		}
		match := header[2:] == modID
		for _, skipField := range fields[1:] {
			if _, err := strconv.Atoi(skipField); err != nil {
				return nil, false, errors.Wrapf(err, "parsing skip count in Mm/MM entry %q", entry)
			}
			if mlIdx >= len(ml) {
				return nil, false, errors.New("Ml/ML array shorter than Mm/MM implies")
			}
			if match {
				probs = append(probs, float64(ml[mlIdx])/256)
			}
			mlIdx++
		}
	}
	return probs, true, nil
}

func auxString(rec *sam.Record, tags ...sam.Tag) (string, bool) {
	for _, tag := range tags {
		if aux := rec.AuxFields.Get(tag); aux != nil {
			if s, ok := aux.Value().(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func auxBytes(rec *sam.Record, tags ...sam.Tag) ([]byte, bool) {
	for _, tag := range tags {
		if aux := rec.AuxFields.Get(tag); aux != nil {
			if b, ok := aux.Value().([]byte); ok {
				return b, true
			}
		}
	}
	return nil, false
}
