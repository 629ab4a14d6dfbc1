package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// loadDataset reads a dataset file: either a JSON object with keyword,
// products and market fields, or a bare JSON array of products.  "-" reads
// stdin.  A non-empty keyword overrides the file's.
func loadDataset(path, keyword string, stdin io.Reader) (product.Dataset, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return product.Dataset{}, errors.Wrapf(err, errors.ErrCodeValidation, "failed to read dataset %s", path)
	}

	var ds product.Dataset
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		err = json.Unmarshal(trimmed, &ds.Products)
	} else {
		err = json.Unmarshal(trimmed, &ds)
	}
	if err != nil {
		return product.Dataset{}, errors.Wrapf(err, errors.ErrCodeSerialization, "failed to decode dataset %s", path)
	}
	if ds.Products == nil {
		ds.Products = []product.Product{}
	}

	if kw := strings.TrimSpace(keyword); kw != "" {
		ds.Keyword = kw
	}
	if ds.Keyword == "" {
		return product.Dataset{}, errors.New(errors.ErrCodeDatasetKeywordMissing, "keyword is required: pass --keyword or set it in the dataset file")
	}
	if ds.Market != nil && ds.Market.Keyword == "" {
		ds.Market.Keyword = ds.Keyword
	}
	return ds, nil
}
