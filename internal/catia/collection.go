package catia

import "fmt"

// ForEach walks a 1-based automation collection, handing each item to
// fn until it reports false or fails. fn owns the items it receives and
// releases the ones it does not keep.
func ForEach(coll Object, fn func(item Object) (bool, error)) error {
	count, err := GetInt(coll, "Count")
	if err != nil {
		return fmt.Errorf("collection count: %w", err)
	}
	for i := 1; i <= count; i++ {
		item, err := CallObject(coll, "Item", i)
		if err != nil {
			return fmt.Errorf("collection item %d: %w", i, err)
		}
		cont, err := fn(item)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Items collects every member of a 1-based automation collection. The
// caller owns the returned handles.
func Items(coll Object) ([]Object, error) {
	var items []Object
	err := ForEach(coll, func(item Object) (bool, error) {
		items = append(items, item)
		return true, nil
	})
	if err != nil {
		for _, item := range items {
			item.Release()
		}
		return nil, err
	}
	return items, nil
}

// ItemByName fetches a named member of an automation collection
func ItemByName(coll Object, name string) (Object, error) {
	return CallObject(coll, "Item", name)
}
