package potential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// DecodeParams fills out with the parameters of src. out must already hold
// the defaults. Values from <directory>/<module>.yaml override the defaults,
// and src.Params overrides both. Keys match the yaml tags of out.
func DecodeParams(src Source, out any) error {
	merged := make(map[string]any)

	path := filepath.Join(src.Directory, src.Module()+".yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileParams map[string]any
		if err := yaml.Unmarshal(data, &fileParams); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for k, v := range fileParams {
			if v != nil {
				merged[k] = v
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	for k, v := range src.Params {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(merged); err != nil {
		return fmt.Errorf("params for %s: %w", src.Module(), err)
	}
	return nil
}
