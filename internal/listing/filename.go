package listing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/paperscope/internal/record"
)

// ErrFilename is returned for listing files not named <venue>-<year>.
var ErrFilename = errors.New("listing file name must be <venue>-<year>")

// ParseFilename derives venue and year from a listing path such as
// "pages/icml-2021" or "icml-2021.html". The venue is upper-cased.
func ParseFilename(path string) (venue string, year int, err error) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.Split(name, "-")
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 4 {
		return "", 0, fmt.Errorf("%w: %q", ErrFilename, filepath.Base(path))
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 1000 {
		return "", 0, fmt.Errorf("%w: %q", ErrFilename, filepath.Base(path))
	}
	return record.NormalizeVenue(parts[0]), year, nil
}
