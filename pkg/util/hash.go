package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// AssetKey encodes the rendered fields of one asset exactly as stored, used for change detection.
func AssetKey(a model.Asset) string {
	created := ""
	if a.HasCreatedAt() {
		created = a.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	// A JSON array keeps separators inside field values unambiguous.
	key, _ := json.Marshal([]string{
		a.Description,
		a.Department,
		a.Location,
		strconv.FormatFloat(a.Cost, 'f', -1, 64),
		created,
	})
	return string(key)
}

// FingerprintAssets returns an MD5 hash of the dataset that does not depend on record order.
func FingerprintAssets(assets []model.Asset) string {
	lines := make([]string, 0, len(assets))
	for _, a := range assets {
		lines = append(lines, AssetKey(a))
	}
	sort.Strings(lines)
	return hashString(strings.Join(lines, "\n"))
}

// HashString returns the MD5 hash of an arbitrary string.
func HashString(input string) string {
	return hashString(strings.TrimSpace(strings.ToLower(input)))
}

func hashString(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
