package wizard

import (
	"regexp"
	"strings"

	"github.com/rshade/tripcarbon/internal/carbon"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
)

// ValidateLogin checks the CPF ("000.000.000-00") and mobile phone
// ("(00) 00000-0000") formats. Check digits are not verified.
func ValidateLogin(cpf, phone string) error {
	switch {
	case cpf == "":
		return invalid("cpf", "CPF é obrigatório")
	case !cpfPattern.MatchString(cpf):
		return invalid("cpf", "CPF inválido")
	case phone == "":
		return invalid("phone", "Celular é obrigatório")
	case !phonePattern.MatchString(phone):
		return invalid("phone", "Celular inválido")
	}
	return nil
}

// OriginForm is the origin page input.
type OriginForm struct {
	State          string `json:"state"`
	City           string `json:"city"`
	CustomCity     bool   `json:"customCity"`
	CustomCityName string `json:"customCityName"`
}

// Origin validates the form and returns the origin it describes. For custom
// cities the typed name becomes the city.
func (f OriginForm) Origin() (carbon.Origin, error) {
	state := strings.TrimSpace(f.State)
	if state == "" {
		return carbon.Origin{}, invalid("state", "Estado é obrigatório")
	}

	if f.CustomCity {
		name := strings.TrimSpace(f.CustomCityName)
		if name == "" {
			name = strings.TrimSpace(f.City)
		}
		if name == "" {
			return carbon.Origin{}, invalid("customCityName", "Nome da cidade é obrigatório")
		}
		return carbon.Origin{State: state, City: name, CustomCity: true}, nil
	}

	city := strings.TrimSpace(f.City)
	if city == "" {
		return carbon.Origin{}, invalid("city", "Cidade é obrigatória")
	}
	return carbon.Origin{State: state, City: city}, nil
}

// TransportForm is the transport page input.
type TransportForm struct {
	Vehicle    string `json:"vehicle"`
	Fuel       string `json:"fuel"`
	Passengers int    `json:"passengers"`
}

// Validate resolves the vehicle and fuel and checks the passenger count
// against the vehicle capacity.
func (f TransportForm) Validate() (carbon.Vehicle, carbon.Fuel, error) {
	if strings.TrimSpace(f.Vehicle) == "" {
		return "", "", invalid("vehicle", "Veículo é obrigatório")
	}
	vehicle, ok := carbon.ParseVehicle(f.Vehicle)
	if !ok {
		return "", "", invalid("vehicle", "Veículo inválido")
	}

	if strings.TrimSpace(f.Fuel) == "" {
		return "", "", invalid("fuel", "Combustível é obrigatório")
	}
	fuel, ok := carbon.ParseFuel(f.Fuel)
	if !ok {
		return "", "", invalid("fuel", "Combustível inválido")
	}

	if f.Passengers < 0 {
		return "", "", invalid("passengers", "Número de passageiros não pode ser negativo")
	}
	if f.Passengers > vehicle.Capacity() {
		return "", "", invalid("passengers", "Número de passageiros excede a capacidade do veículo")
	}
	return vehicle, fuel, nil
}

// ValidateDistance accepts finite distances >= 0.
func ValidateDistance(km float64) error {
	if !carbon.ValidNonNegative(km) {
		return invalid("distance", "Distância deve ser um número maior ou igual a zero")
	}
	return nil
}
