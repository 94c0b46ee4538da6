package llm

import (
	"encoding/json"
	"strings"

	"github.com/jorgelunams/contratospoc/internal/extract"
)

const instructions = `Instrucciones:

Por favor, analiza el siguiente contrato y extrae la información detallada a continuación. Organiza los datos en un formato JSON estructurado que permita manejar múltiples instancias (por ejemplo, varios representantes o varias multas). Asegúrate de extraer toda la información relevante, prestando especial atención a las multas y sus implicancias.

1. Datos a Extraer:

Tipo de Contrato: (Ejemplo: Anexo, Contrato de Servicios, Confidencialidad (NDA), Carta Término)
Tipo de Servicio: (Ejemplo: Asesoría, Seguridad, Alimentación)
Parte/Contraparte: (Ejemplo: XXX vs YYY)
Fecha de Inicio / Fecha de Término
Renovación Automática: Indica si el contrato se renueva automáticamente.
Monto: Detalle del honorario total y condiciones de pago.
Multas Asociadas: Detalle completo de todas las multas, incluyendo:
Tipo de incumplimiento
Implicancias
Monto de la multa en UF
Plazo para la constancia
Descripción completa
Penalidades: Información sobre otras penalidades aplicables.
¿Término Anticipado?: Especifica el plazo requerido para el preaviso.
¿Exclusividad?: Indica si existe alguna cláusula de exclusividad y proporciona detalles.
Entidades: Extrae todas las entidades relevantes del contrato, como nombres de personas, países y otras entidades importantes.

2. Formato de Salida Esperado:
Organiza la información extraída en un único JSON siguiendo la estructura indicada más abajo.`

const rules = `*** FIN CONTRATO A PROCESAR ***

INSTRUCCIONES IMPORTANTES:
No inicies nunca con un bloque de código, responde solo con el JSON completo.
El JSON debe estar en una sola línea y ser JSON puro.
Si no existe el valor pon null o un string vacío "".

### REGLAS ESTRICTAS PARA NOMBRES DE CAMPOS JSON ###
DEBES USAR EXACTAMENTE ESTOS NOMBRES DE SECCIÓN: "Contrato", "Multas", "CompaniaInfo", "ProveedoresInfo", "Representantes", "Entidades".

### ESTRUCTURA OBLIGATORIA ###
{
  "Contrato": {
    "tipo_contrato": "",
    "numero_contrato": "",
    "tipo_servicio": "",
    "parte_cliente": "",
    "parte_proveedor": "",
    "fecha_inicio": "",
    "fecha_termino": "",
    "renovacion_automatica": false,
    "monto_total": 0,
    "multa_monto": 0,
    "multa_penalidades": "",
    "termino_anticipado_activo": false,
    "termino_anticipado_plazo_dias": 0,
    "exclusividad_activo": false,
    "exclusividad_detalles": "",
    "descripcion": "",
    "nombre": ""
  },
  "Multas": [{"tipo_incumplimiento": "", "implicancias": "", "monto_multa_uf": "", "plazo_constancia": "", "descripcion_completa": ""}],
  "CompaniaInfo": {"nombre": "", "rut": "", "domicilio": ""},
  "ProveedoresInfo": [{"nombre": "", "rut": "", "domicilio": ""}],
  "Representantes": [{"nombre": "", "cedula_de_identidad": ""}],
  "Entidades": [{"tipo": "", "valor": ""}]
}

IMPORTANTE: EXTRAE TODAS LAS ENTIDADES DEL CONTRATO, SIN LÍMITE DE CANTIDAD.
NO INVENTES NI COPIES DATOS DE EJEMPLO. Solo reporta lo que está en el contrato a procesar.
La respuesta debe ser un JSON válido que siga EXACTAMENTE la estructura proporcionada.`

// BuildContractPrompt embeds the page text bundle between the extraction
// instructions and the output rules.
func BuildContractPrompt(bundle extract.PageTextBundle) string {
	body, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		body = []byte(bundle.Text())
	}

	var b strings.Builder
	b.Grow(len(instructions) + len(rules) + len(body) + 128)
	b.WriteString(instructions)
	b.WriteString("\n---\nENTRADA DEL CONTRATO A PROCESAR: **** INICIO CONTRATO ****\n")
	b.Write(body)
	b.WriteString("\n---\n")
	b.WriteString(rules)
	return b.String()
}
