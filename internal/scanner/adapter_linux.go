package scanner

import "tinygo.org/x/bluetooth"

func adapterFor(id string) *bluetooth.Adapter {
	if id == "" {
		return bluetooth.DefaultAdapter
	}
	return bluetooth.NewAdapter(id)
}
