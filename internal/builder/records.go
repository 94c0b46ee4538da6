package builder

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/canon"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/normalize"
	"github.com/jorgelunams/contratospoc/internal/shape"
)

func (b *Builder) contract(raw *shape.Object, now time.Time) entity.Contract {
	o := b.canon.Object(canon.Contract, raw)
	flattenFlag(o, "termino_anticipado", "termino_anticipado_activo",
		[2]string{"plazo_dias", "termino_anticipado_plazo_dias"},
		[2]string{"plazo", "termino_anticipado_plazo_dias"},
	)
	flattenFlag(o, "exclusividad", "exclusividad_activo",
		[2]string{"detalles", "exclusividad_detalles"},
	)

	c := entity.Contract{
		Kind:          orDefault(o.Text("tipo_contrato"), constants.DefaultContractKind),
		ServiceKind:   orDefault(o.Text("tipo_servicio"), constants.DefaultServiceKind),
		ClientParty:   o.Text("parte_cliente"),
		ProviderParty: o.Text("parte_proveedor"),
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t, ok := normalize.ParseDate(o.Text("fecha_inicio")); ok {
		c.StartDate = t
	} else {
		c.StartDate = today
	}
	if t, ok := normalize.ParseDate(o.Text("fecha_termino")); ok {
		c.EndDate = t
	} else {
		c.EndDate = c.StartDate.AddDate(0, 0, constants.DefaultTermDays)
	}

	get := func(k string) shape.Value {
		v, _ := o.Get(k)
		return v
	}
	c.AutoRenewal = get("renovacion_automatica").Bool(false)
	c.TotalAmount = amount(get("monto_total"))
	c.FineAmount = amount(get("multa_monto"))
	c.FinePenalties = optional(o.Text("multa_penalidades"))
	c.EarlyTermination = get("termino_anticipado_activo").Bool(false)
	if days, ok := get("termino_anticipado_plazo_dias").Int(); ok {
		c.EarlyTerminationNoticeDays = &days
	}
	c.Exclusivity = get("exclusividad_activo").Bool(false)
	c.ExclusivityDetails = optional(o.Text("exclusividad_detalles"))
	c.Description = optional(o.Text("descripcion"))
	c.Name = optional(o.Text("nombre"))
	return c
}

// flattenFlag accepts {"exclusividad": {"activo": true, "detalles": "..."}}
// as well as the flat keys. Flat keys win when both are present; among the
// nested fields mapping to one flat key, the first listed wins.
func flattenFlag(o *shape.Object, nested, flag string, fields ...[2]string) {
	v, ok := o.Get(nested)
	if !ok {
		return
	}
	inner := v.Object()
	if inner == nil {
		if _, exists := o.Get(flag); !exists && v.Kind() == shape.KindScalar {
			o.Set(flag, v)
		}
		return
	}
	if act, ok := inner.Get("activo"); ok {
		if _, exists := o.Get(flag); !exists {
			o.Set(flag, act)
		}
	}
	for _, f := range fields {
		if fv, ok := inner.Get(f[0]); ok {
			if _, exists := o.Get(f[1]); !exists {
				o.Set(f[1], fv)
			}
		}
	}
}

func (b *Builder) representatives(v shape.Value, log *slog.Logger) []entity.Representative {
	objs, skipped := shape.Objects(v)
	if skipped > 0 {
		log.Warn("builder.representatives.skipped_non_objects", "count", skipped)
	}
	out := make([]entity.Representative, 0, len(objs))
	for i, raw := range objs {
		o := b.canon.Object(canon.Representative, raw)
		r := entity.Representative{
			Name:     o.Text("nombre"),
			IDNumber: o.Text("cedula_identidad"),
		}
		if r.Name == "" || r.IDNumber == "" {
			log.Warn("builder.representative.dropped", "index", i, "has_name", r.Name != "", "has_id", r.IDNumber != "")
			continue
		}
		out = append(out, r)
	}
	return out
}

func (b *Builder) fines(v shape.Value, log *slog.Logger) []entity.Fine {
	objs, skipped := shape.Objects(v)
	if skipped > 0 {
		log.Warn("builder.fines.skipped_non_objects", "count", skipped)
	}
	out := make([]entity.Fine, 0, len(objs))
	for _, raw := range objs {
		o := b.canon.Object(canon.Fine, raw)
		out = append(out, entity.Fine{
			BreachType:       o.Text("tipo_incumplimiento"),
			Consequences:     optional(o.Text("implicancias")),
			AmountUF:         optional(o.Text("monto_multa_uf")),
			EvidenceDeadline: optional(o.Text("plazo_constancia")),
			FullDescription:  optional(o.Text("descripcion_completa")),
		})
	}
	return out
}

// entities always returns at least one element.
func (b *Builder) entities(v shape.Value, log *slog.Logger) []entity.Entity {
	objs, skipped := shape.Objects(v)
	if skipped > 0 {
		log.Warn("builder.entities.skipped_non_objects", "count", skipped)
	}
	out := make([]entity.Entity, 0, len(objs))
	for _, raw := range objs {
		o := b.canon.Object(canon.Entity, raw)
		out = append(out, entity.Entity{Type: o.Text("tipo"), Value: o.Text("valor")})
	}
	if len(out) == 0 {
		log.Debug("builder.entities.placeholder")
		out = append(out, entity.Entity{})
	}
	return out
}

// amount is never nil; absent or unparseable input yields 0.0.
func amount(v shape.Value) *float64 {
	f := normalize.Decimal(v.Text())
	if n, ok := v.Interface().(json.Number); ok {
		if parsed, err := n.Float64(); err == nil {
			f = normalize.DefaultDecimal.Clamp(parsed)
		}
	}
	return &f
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
