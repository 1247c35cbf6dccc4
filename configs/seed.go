package configs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"gopkg.in/yaml.v3"
)

// default delivery points, used when DELIVERY_POINTS_FILE is not set
var defaultDeliveryPoints = []entity.DeliveryPoint{
	{ID: "local", Name: "Al Punto - Local", Address: "Av. Principal 123, Centro"},
	{ID: "plaza", Name: "Plaza Norte", Address: "Centro Comercial Plaza Norte, Local 14"},
	{ID: "universidad", Name: "Campus Universitario", Address: "Puerta 2, Edificio de Ingeniería"},
	{ID: "mesa-1", Name: "Mesa 1", Address: "Salón principal", TableID: "1"},
	{ID: "mesa-2", Name: "Mesa 2", Address: "Salón principal", TableID: "2"},
}

type deliveryPointsFile struct {
	Points []entity.DeliveryPoint `yaml:"deliveryPoints"`
}

// LoadDeliveryPoints reads the YAML reference list, or returns the built-in one.
func LoadDeliveryPoints(path string) ([]entity.DeliveryPoint, error) {
	if path == "" {
		slog.Info("using built-in delivery points", "count", len(defaultDeliveryPoints))
		return append([]entity.DeliveryPoint(nil), defaultDeliveryPoints...), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read delivery points: %w", err)
	}
	var f deliveryPointsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse delivery points: %w", err)
	}
	if len(f.Points) == 0 {
		return nil, errors.New("delivery points file has no entries")
	}

	seen := make(map[string]bool, len(f.Points))
	for _, p := range f.Points {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("delivery point %q: id and name are required", p.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate delivery point id %q", p.ID)
		}
		seen[p.ID] = true
	}
	slog.Info("delivery points loaded", "file", path, "count", len(f.Points))
	return f.Points, nil
}
