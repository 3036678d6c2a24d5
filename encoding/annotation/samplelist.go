package annotation

import (
	"bufio"
	"context"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// ReadSampleList reads the sample-ID allowlist at path.  Lines are
// whitespace-delimited; a line with two or more fields uses the second field
// as the sample name (the sex-file convention of upstream pipelines), a
// single-field line uses the field itself.  Blank lines and '#' comments are
// skipped.  An allowlist without a single usable name is an error.
func ReadSampleList(ctx context.Context, path string) (allowed map[string]bool, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	allowed = map[string]bool{}
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		name := fields[0]
		if len(fields) >= 2 {
			name = fields[1]
		}
		allowed[name] = true
	}
	if serr := scanner.Err(); serr != nil {
		return nil, serr
	}
	if len(allowed) == 0 {
		return nil, errors.Errorf("no sample names found in %s", path)
	}
	log.Debug.Printf("%s: %d distinct sample names", path, len(allowed))
	return allowed, nil
}
