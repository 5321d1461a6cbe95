package dto

import "net/url"

type ResumenFilter struct {
	Desde string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
}

func (f ResumenFilter) Values() url.Values {
	v := url.Values{}
	if f.Desde != "" {
		v.Set("from", f.Desde)
	}
	if f.Hasta != "" {
		v.Set("to", f.Hasta)
	}
	return v
}

type EnviarReporteRequest struct {
	Destinatario string `json:"destinatario" validate:"required,email"`
	Desde        string `json:"from"         validate:"omitempty,datetime=2006-01-02"`
	Hasta        string `json:"to"           validate:"omitempty,datetime=2006-01-02"`
}
