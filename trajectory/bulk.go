package trajectory

import (
	"fmt"

	"github.com/n0remac/robotraj/config"
)

// FromListOfDicts writes one step per entry of steps, each a map of
// feature name to value recorded at the same pts, then closes with
// compaction. steps[i] need not carry every feature name (on_new_stream
// kicks in for features introduced partway through).
func FromListOfDicts(steps []map[string]any, path string, cfg config.Config) error {
	traj, err := OpenWrite(path, cfg)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := traj.AddByDict(step); err != nil {
			return err
		}
	}
	return traj.Close(true)
}

// FromDictOfLists writes lists transposed into per-step dicts: step i
// carries lists[name][i] for every name. Every list must share the same
// length, or ErrShapeMismatch is returned before anything is written.
func FromDictOfLists(lists map[string][]any, path string, cfg config.Config) error {
	n := -1
	for name, values := range lists {
		if n == -1 {
			n = len(values)
			continue
		}
		if len(values) != n {
			return fmt.Errorf("%w: feature %q has length %d, expected %d", ErrShapeMismatch, name, len(values), n)
		}
	}
	if n <= 0 {
		return nil
	}

	traj, err := OpenWrite(path, cfg)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		step := make(map[string]any, len(lists))
		for name, values := range lists {
			step[name] = values[i]
		}
		if err := traj.AddByDict(step); err != nil {
			return err
		}
	}
	return traj.Close(true)
}
