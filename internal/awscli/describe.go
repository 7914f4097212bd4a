package awscli

import (
	"encoding/json"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
)

// ParseDescribeOutput decodes a describe-snapshots response body.
//
// Invalid JSON, or a Snapshots entry that does not decode, is
// ErrListParseFailed. Valid JSON that is not an object, or whose Snapshots
// key is absent or falsy (null, false, 0, ""), is ErrListMissingSnapshots.
// An empty list is fine.
func ParseDescribeOutput(out []byte) ([]core.SnapshotRecord, error) {
	var doc any
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, core.WrapAppError(core.ErrListParseFailed, "unable to parse JSON response", err, out)
	}

	obj, ok := doc.(map[string]any)
	if !ok || falsy(obj["Snapshots"]) {
		return nil, core.WrapAppError(core.ErrListMissingSnapshots, "unable to find snapshot list in response", nil, out)
	}

	var resp struct {
		Snapshots []core.SnapshotRecord `json:"Snapshots"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, core.WrapAppError(core.ErrListParseFailed, "unable to decode snapshot list", err, out)
	}
	if resp.Snapshots == nil {
		resp.Snapshots = []core.SnapshotRecord{}
	}
	return resp.Snapshots, nil
}

func falsy(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	}
	return false
}
