package cli

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"studiosim/internal/sim"
	"studiosim/internal/syncq"
)

// The builders below describe every studio write as a syncq.Command so the
// same value can be sent now or queued for `stk sync`.

func newCommand(companyID, label, method, suffix string, body any) syncq.Command {
	return syncq.Command{
		CompanyID:      companyID,
		Label:          label,
		Method:         method,
		Path:           companyPath(companyID, suffix),
		Body:           toBody(body),
		IdempotencyKey: uuid.NewString(),
	}
}

func toBody(in any) map[string]any {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func AdvanceCmd(id string) syncq.Command {
	return newCommand(id, "next month", http.MethodPost, "/advance", nil)
}

func DelegationCmd(id string, enabled bool) syncq.Command {
	label := "delegation off"
	if enabled {
		label = "delegation on"
	}
	return newCommand(id, label, http.MethodPost, "/delegation", map[string]any{"enabled": enabled})
}

func DelegationCycleCmd(id string) syncq.Command {
	return newCommand(id, "delegation cycle", http.MethodPost, "/delegation/cycle", nil)
}

func ResetCmd(id string) syncq.Command {
	return newCommand(id, "reset", http.MethodPost, "/reset", nil)
}

func HireCmd(id string, h sim.Hire) syncq.Command {
	return newCommand(id, "hire "+h.Name, http.MethodPost, "/staff/hire", h)
}

func TrainCmd(id, staffID string, skill sim.Skill) syncq.Command {
	return newCommand(id, "train "+staffID, http.MethodPost, "/staff/"+url.PathEscape(staffID)+"/train",
		map[string]any{"skill": skill})
}

func VacationCmd(id, staffID string) syncq.Command {
	return newCommand(id, "vacation "+staffID, http.MethodPost, "/staff/"+url.PathEscape(staffID)+"/vacation", nil)
}

func AssignSpecialistCmd(id, staffID string, role sim.SpecialistRole) syncq.Command {
	return newCommand(id, "specialist "+staffID, http.MethodPost, "/staff/"+url.PathEscape(staffID)+"/specialist",
		map[string]any{"role": role})
}

func ClearSpecialistCmd(id, staffID string) syncq.Command {
	return newCommand(id, "clear specialist "+staffID, http.MethodDelete, "/staff/"+url.PathEscape(staffID)+"/specialist", nil)
}

func StartProjectCmd(id string, p sim.StartProject) syncq.Command {
	return newCommand(id, "project "+p.Name, http.MethodPost, "/projects", p)
}

func ResearchCmd(id string, kind sim.ResearchKind, itemID string) syncq.Command {
	return newCommand(id, "research "+itemID, http.MethodPost, "/research", sim.StartResearch{ItemKind: kind, ItemID: itemID})
}

func EngineBuildCmd(id, engineID string, staffIDs []string) syncq.Command {
	return newCommand(id, "engine "+engineID, http.MethodPost, "/engines/"+url.PathEscape(engineID)+"/build",
		map[string]any{"staff_ids": staffIDs})
}

func CancelEngineBuildCmd(id string) syncq.Command {
	return newCommand(id, "cancel engine build", http.MethodPost, "/engines/build/cancel", nil)
}

func FranchiseCmd(id, gameID string) syncq.Command {
	return newCommand(id, "franchise "+gameID, http.MethodPost, "/franchises", sim.StartFranchise{GameID: gameID})
}

func UpgradeCmd(id, upgradeID string, level int) syncq.Command {
	return newCommand(id, "upgrade "+upgradeID, http.MethodPost, "/upgrades/"+url.PathEscape(upgradeID)+"/buy",
		map[string]any{"level": level})
}

func MarketingCmd(id, gameID string) syncq.Command {
	return newCommand(id, "marketing "+gameID, http.MethodPost, "/marketing", sim.StartMarketingPush{GameID: gameID})
}
