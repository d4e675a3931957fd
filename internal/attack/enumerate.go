package attack

// Count returns the number of configurations Enumerate yields for the given techniques.
func Count(techniques []Technique) int {
	return len(techniques) * len(Locations) * len(CodePointers) * len(Methods) * len(Functions)
}

// Each calls fn for every configuration in the cross-product, technique
// outermost and function innermost. Iteration stops early when fn returns false.
func Each(techniques []Technique, fn func(Config) bool) {
	for _, tech := range techniques {
		for _, loc := range Locations {
			for _, ptr := range CodePointers {
				for _, method := range Methods {
					for _, function := range Functions {
						cfg := Config{
							Technique:   tech,
							Location:    loc,
							CodePointer: ptr,
							Method:      method,
							Function:    function,
						}
						if !fn(cfg) {
							return
						}
					}
				}
			}
		}
	}
}

// Enumerate returns the full cross-product in the same order as Each.
func Enumerate(techniques []Technique) []Config {
	configs := make([]Config, 0, Count(techniques))
	Each(techniques, func(c Config) bool {
		configs = append(configs, c)
		return true
	})
	return configs
}
