package dto

// NotasMasivasResponse summarises a bulk note-matching run.
type NotasMasivasResponse struct {
	Facturas  int `json:"facturas"`
	ConNota   int `json:"con_nota"`
	SinNota   int `json:"sin_nota"`
	Invalidas int `json:"invalidas"`
}
