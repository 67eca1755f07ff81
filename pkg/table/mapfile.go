package table

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadMap reads a two-column text file such as utt2spk. spec is either a
// plain path or an "ark[,t]:" specifier.
func ReadMap(spec string) (map[string]string, error) {
	path := spec
	if strings.Contains(spec, ":") {
		s, err := ParseSpecifier(spec)
		if err != nil {
			return nil, err
		}
		path = s.Target
	}

	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, fmt.Errorf("open %s: %w", spec, err)
		}
		defer f.Close()
	}

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s line %d: expected 2 fields, got %d", ErrFormat, spec, n, len(fields))
		}
		out[fields[0]] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", spec, err)
	}
	return out, nil
}
