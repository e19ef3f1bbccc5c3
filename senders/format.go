package senders

import (
	"fmt"

	"github.com/cisconnect/fleetwatch/lib/status"
)

var statusEmoji = map[status.Status]string{
	status.Available:              "✅",
	status.UnavailableEquipment:   "🔧",
	status.UnavailableOperational: "⚠️",
	status.Disinfection:           "🧽",
	status.OnIntervention:         "🚨",
	status.ReturningToService:     "🔄",
	status.OutOfService:           "❌",
}

var statusColor = map[status.Status]int{
	status.Available:              0x00AA00,
	status.UnavailableEquipment:   0xFF6600,
	status.UnavailableOperational: 0xFFA500,
	status.Disinfection:           0x00BFFF,
	status.OnIntervention:         0xFF4500,
	status.ReturningToService:     0xFFFF00,
	status.OutOfService:           0x808080,
}

func Emoji(s status.Status) string {
	if e, ok := statusEmoji[s]; ok {
		return e
	}
	return "📊"
}

func Color(s status.Status) int {
	if c, ok := statusColor[s]; ok {
		return c
	}
	return 0x808080
}

func (n Notification) availableTitle() string {
	return fmt.Sprintf("%s Vehicle available", Emoji(n.Status))
}

func (n Notification) availableBody() string {
	return fmt.Sprintf("**%s** is now **%s**.\nYou will only be notified again the next time it becomes available.", n.VehicleName, n.Status)
}

func (n Notification) maintenanceTitle() string {
	return fmt.Sprintf("%s Equipment unavailability", Emoji(n.Status))
}

func (n Notification) maintenanceBody() string {
	return fmt.Sprintf("**%s** is **%s**.", n.VehicleName, n.Status)
}
