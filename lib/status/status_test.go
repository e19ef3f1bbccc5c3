package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_FrenchKeywords(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"Le véhicule est disponible", Available},
		{"Disponible", Available},
		{"Indisponible matériel défectueux", UnavailableEquipment},
		{"Indisponible", UnavailableOperational},
		{"Indisponible personnel manquant", UnavailableOperational},
		{"Désinfection en cours", Disinfection},
		{"En intervention", OnIntervention},
		{"Retour au centre", ReturningToService},
		{"Hors service", OutOfService},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.raw), "raw=%q", c.raw)
	}
}

func TestNormalize_EnglishKeywords(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"Vehicle is available", Available},
		{"Unavailable equipment failure", UnavailableEquipment},
		{"Unavailable", UnavailableOperational},
		{"Disinfection in progress", Disinfection},
		{"Crew on scene", OnIntervention},
		{"Returning to base", ReturningToService},
		{"Out of service", OutOfService},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.raw), "raw=%q", c.raw)
	}
}

// "indisponible" contains "disponible"; only the negated form may win.
func TestNormalize_IndisponibleNeverMatchesAvailable(t *testing.T) {
	assert.Equal(t, UnavailableOperational, Normalize("Indisponible"))
	assert.Equal(t, UnavailableOperational, Normalize("Le véhicule est indisponible"))
}

func TestNormalize_EquipmentWinsOverOperational(t *testing.T) {
	assert.Equal(t, UnavailableEquipment, Normalize("Indisponible - panne matériel"))
}

func TestNormalize_DiacriticsRequired(t *testing.T) {
	// Unaccented "materiel" is not the equipment keyword.
	assert.Equal(t, UnavailableOperational, Normalize("Indisponible materiel"))
}

func TestNormalize_DegenerateBecomesUnknown(t *testing.T) {
	for _, raw := range []string{
		"",
		"  ",
		"ab",
		"FS1 Istres", // feed echoing the station name
		"VSAV2",
		"CIS ISTRES",
	} {
		assert.Equal(t, Unknown, Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalize_PassThroughKeepsMeaningfulText(t *testing.T) {
	assert.Equal(t, Status("Maintenance prévue"), Normalize("maintenance prévue"))
	assert.Equal(t, Status("Contrôle technique"), Normalize("contrôle technique"))
}

func TestNormalize_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Available, Normalize("DISPONIBLE"))
	assert.Equal(t, OutOfService, Normalize("HORS SERVICE"))
}

func TestIsCanonical(t *testing.T) {
	for _, s := range []Status{
		Available, UnavailableEquipment, UnavailableOperational,
		Disinfection, OnIntervention, ReturningToService, OutOfService, Unknown,
	} {
		assert.True(t, IsCanonical(s), "status=%q", s)
	}

	assert.False(t, IsCanonical(Status("Maintenance prévue")))
	assert.False(t, IsCanonical(Status("")))
}
