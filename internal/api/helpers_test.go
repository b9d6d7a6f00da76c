package api

import (
	"os"
	"strconv"
)

func jsonInt(n int64) string { return strconv.FormatInt(n, 10) }

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}
