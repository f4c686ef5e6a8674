package configtree

// MergeDefaults merges defaults into explicit and returns the result.
// Explicit values always win; defaults only fill in missing keys, recursing
// into maps present on both sides. Neither input is modified.
func MergeDefaults(defaults, explicit map[string]any) map[string]any {
	out := copyMap(explicit)
	for k, dv := range defaults {
		ev, ok := out[k]
		if !ok {
			out[k] = copyValue(dv)
			continue
		}
		dm, dIsMap := dv.(map[string]any)
		em, eIsMap := ev.(map[string]any)
		if dIsMap && eIsMap {
			out[k] = MergeDefaults(dm, em)
		}
	}
	return out
}
