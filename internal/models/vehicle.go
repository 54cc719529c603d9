package models

import "fmt"

// VehicleData is the submitted vehicle payload. It is stored as JSON on the
// evaluation and only interpreted again when building the valuation prompt.
type VehicleData struct {
	Marca         string `json:"marca" binding:"required"`
	Modelo        string `json:"modelo" binding:"required"`
	Versao        string `json:"versao"`
	AnoFabricacao int    `json:"ano_fabricacao" binding:"required"`
	AnoModelo     int    `json:"ano_modelo"`
	Categoria     string `json:"categoria"`

	Motor       string `json:"motor"`
	CV          int    `json:"cv"`
	Combustivel string `json:"combustivel"`
	Cambio      string `json:"cambio"`
	Tracao      string `json:"tracao"`

	KM          int64  `json:"km"`
	Donos       int    `json:"donos"`
	Sinistro    bool   `json:"sinistro"`
	Revisoes    bool   `json:"revisoes"`
	ManualChave bool   `json:"manual_chave"`
	Pneus       string `json:"pneus"`
	Pintura     bool   `json:"pintura"`  // original paint
	Interior    bool   `json:"interior"` // interior well kept

	Historico    string   `json:"historico"`
	Modificacoes string   `json:"modificacoes"`
	Obs          string   `json:"obs"`
	ImageURLs    []string `json:"image_urls"`
}

// Title is the human-readable label used on checkout items.
func (v *VehicleData) Title() string {
	if v.Marca == "" && v.Modelo == "" {
		return "Avaliação de veículo"
	}
	return fmt.Sprintf("Avaliação %s %s", v.Marca, v.Modelo)
}
