// pkg/features/credentials.go - collector for stored credential names.

package features

import (
	"context"
	"fmt"
	"sort"

	"github.com/danieljoos/wincred"

	"github.com/windowsadmins/melody/pkg/backup"
)

// StoredCredential records the identity of a Credential Manager entry.
// Secret material never leaves the vault; a restored machine only needs
// to know which credentials to re-enter.
type StoredCredential struct {
	TargetName string `json:"target_name"`
	UserName   string `json:"user_name,omitempty"`
	Persist    uint32 `json:"persist"`
}

// CollectCredentials snapshots the names of entries in the Windows
// Credential Manager.
func CollectCredentials(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	creds, err := wincred.List()
	if err != nil {
		return nil, []string{fmt.Sprintf("listing credentials: %v", err)}
	}

	stored := make([]StoredCredential, 0, len(creds))
	for _, cred := range creds {
		stored = append(stored, StoredCredential{
			TargetName: cred.TargetName,
			UserName:   cred.UserName,
			Persist:    uint32(cred.Persist),
		})
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].TargetName < stored[j].TargetName })

	if err := backup.WriteSnapshot(env.Dir, "credentials.json", stored); err != nil {
		return nil, []string{fmt.Sprintf("writing credentials.json: %v", err)}
	}
	return []backup.Outcome{{
		Name:    "credential manager",
		Success: true,
		Detail:  fmt.Sprintf("%d entry name(s), secrets not exported", len(stored)),
	}}, nil
}
