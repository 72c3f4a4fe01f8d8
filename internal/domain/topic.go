package domain

import (
	"encoding/json"
	"fmt"
)

// Topic classifies a complaint. It is either NotApplicable (the zero value)
// or one of the catalogued complaint topics; only reclamo cases carry one.
type Topic struct {
	name string
}

// TopicNotApplicable is the topic of every non-complaint case.
var TopicNotApplicable = Topic{}

var complaintTopics = []string{
	"Trato no amable, digno ni respetuoso",
	"Trato discriminatorio",
	"Trato con falta de privacidad",
	"Trato con falta de confidencialidad",
	"Trato sin pertinencia cultural en la atención",
	"Trato sin condiciones para el acompañamiento",
	"Competencia técnica diagnóstico",
	"Competencia técnica tratamiento farmacológico / clínico / cirugía",
	"Eventos adversos",
	"Infraestructura baños públicos",
	"Infraestructura condiciones salas de espera, box de atención o sala de hospitalización",
	"Infraestructura accesibilidad universal",
	"Infraestructura comodidad y seguridad de camas, cunas y camillas de traslado",
	"Condiciones de infraestructura para el acompañamiento",
	"Tiempo de espera (En sala de espera)",
	"Tiempo de espera, por consulta especialidad (Por lista de espera)",
	"Tiempo de espera, por procedimiento (Lista de espera)",
	"Tiempo de espera , por cirugía (Lista de espera)",
	"Información del estado de salud",
	"Información y trámites institucionales",
	"Información sobre consentimiento informado",
	"Información sobre acceso a ficha clínica",
	"Información sobre acceso a médico tratante",
	"Información de egreso o traslado",
	"Procedimientos administrativos en el proceso de admisión y recaudación",
	"Procedimientos administrativos al egreso",
	"Procedimientos administrativos de referencia y/o derivación",
	"Procedimientos administrativos de Ficha extraviada o perdida",
	"Procedimientos administrativos en agendamiento y reagendamiento de atención",
	"Procedimientos administrativos en suspensión de atención",
	"Procedimientos administrativos en suspensión de cirugía programada",
	"Procedimientos administrativos con acceso a medicamentos",
	"Probidad administrativa",
	"Incumplimiento Garantías Explícitas en Salud (GES)",
	"Vulneración de derechos sexuales y reproductivos",
	"Reclamos asociados a violencia gineco obstétrica",
	"Incumplimiento Ley Mila N°21.372",
	"Incumplimiento Ley Dominga N° 21.371",
	"Incumplimiento de garantías Ley Ricarte Soto",
	"Incumplimiento de garantías FOFAR",
}

var complaintTopicSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(complaintTopics))
	for _, name := range complaintTopics {
		set[name] = struct{}{}
	}
	return set
}()

// ComplaintTopics lists the catalogued topics.
func ComplaintTopics() []string {
	return append([]string(nil), complaintTopics...)
}

// SpecificTopic returns the catalogued topic with the given name.
func SpecificTopic(name string) (Topic, error) {
	if _, ok := complaintTopicSet[name]; !ok {
		return Topic{}, fmt.Errorf("unknown topic %q", name)
	}
	return Topic{name: name}, nil
}

// Applicable reports whether t is a specific topic.
func (t Topic) Applicable() bool {
	return t.name != ""
}

// Name returns the topic label, empty when not applicable.
func (t Topic) Name() string {
	return t.name
}

func (t Topic) String() string {
	if !t.Applicable() {
		return "not applicable"
	}
	return t.name
}

// MarshalJSON encodes NotApplicable as null.
func (t Topic) MarshalJSON() ([]byte, error) {
	if !t.Applicable() {
		return []byte("null"), nil
	}
	return json.Marshal(t.name)
}

// UnmarshalJSON accepts null, "" or a catalogued topic name.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var name *string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == nil || *name == "" {
		*t = TopicNotApplicable
		return nil
	}
	parsed, err := SpecificTopic(*name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
