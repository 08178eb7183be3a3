package param

import (
	"fmt"
	"sort"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// NotFoundError lists relation names no parameter in the document
// answers to
type NotFoundError struct {
	Names []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("the parameters %v could not be found", e.Names)
}

// Resolve walks the root's parameter collection once and returns the
// parameters matching the given relation names. Matching uses
// GetNameToUseInRelation, the name a formula would address a parameter
// by. The walk stops as soon as every name is matched; names left over
// fail with NotFoundError, sorted. The caller owns the returned
// handles.
func Resolve(root catia.Object, names []string) (map[string]catia.Object, error) {
	remaining := make(map[string]struct{}, len(names))
	for _, n := range names {
		remaining[n] = struct{}{}
	}
	found := make(map[string]catia.Object, len(names))
	if len(remaining) == 0 {
		return found, nil
	}

	params, err := catia.GetObject(root, "Parameters")
	if err != nil {
		return nil, fmt.Errorf("parameters collection: %w", err)
	}
	defer params.Release()

	err = catia.ForEach(params, func(item catia.Object) (bool, error) {
		name, err := catia.CallString(params, "GetNameToUseInRelation", item)
		if err != nil {
			item.Release()
			return false, fmt.Errorf("relation name: %w", err)
		}
		if _, ok := remaining[name]; !ok {
			item.Release()
			return true, nil
		}
		delete(remaining, name)
		found[name] = item
		return len(remaining) > 0, nil
	})
	if err != nil {
		releaseAll(found)
		return nil, err
	}
	if len(remaining) > 0 {
		releaseAll(found)
		missing := make([]string, 0, len(remaining))
		for n := range remaining {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, &NotFoundError{Names: missing}
	}
	return found, nil
}

func releaseAll(found map[string]catia.Object) {
	for _, obj := range found {
		obj.Release()
	}
}
