package healthatom

// Wire shapes of the HealthAtom APIs (Dentalink and Medilink). Both
// speak the same envelope: every response wraps its payload in "data".

const (
	dentalinkBaseURL       = "https://api.dentalink.healthatom.com/api/v1/"
	medilinkBaseURL        = "https://api.medilink2.healthatom.com/api/v5/"
	medilinkProfessionalV6 = "https://api.medilink2.healthatom.com/api/v6/profesionales"

	// Appointment state ids used by both APIs.
	stateScheduled = 7
	stateCanceled  = 1
)

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type itemEnvelope[T any] struct {
	Data T `json:"data"`
}

type wireProfessional struct {
	ID               int    `json:"id"`
	RUT              string `json:"rut"`
	Nombre           string `json:"nombre"`
	Apellidos        string `json:"apellidos"`
	Apellido         string `json:"apellido"`
	Especialidad     string `json:"especialidad"`
	Intervalo        int    `json:"intervalo"`
	Habilitado       *bool  `json:"habilitado"`
	AgendaOnline     *bool  `json:"agenda_online"`
	ContratosSucursal []int `json:"contratos_sucursal"`
	HorariosSucursal  []int `json:"horarios_sucursal"`
}

func (p wireProfessional) lastName() string {
	if p.Apellidos != "" {
		return p.Apellidos
	}
	return p.Apellido
}

func (p wireProfessional) branchIDs() []int {
	seen := make(map[int]bool)
	out := make([]int, 0, len(p.ContratosSucursal)+len(p.HorariosSucursal))
	for _, id := range append(append([]int{}, p.ContratosSucursal...), p.HorariosSucursal...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

type wireBranch struct {
	ID         int    `json:"id"`
	Nombre     string `json:"nombre"`
	Telefono   string `json:"telefono"`
	Ciudad     string `json:"ciudad"`
	Comuna     string `json:"comuna"`
	Direccion  string `json:"direccion"`
	Habilitada *bool  `json:"habilitada"`
}

type wirePatient struct {
	ID              int    `json:"id"`
	RUT             string `json:"rut"`
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	Celular         string `json:"celular"`
	Email           string `json:"email"`
	FechaNacimiento string `json:"fecha_nacimiento"`
}

type createPatientPayload struct {
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	RUT             string `json:"rut"`
	Celular         string `json:"celular,omitempty"`
	Email           string `json:"email,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
}

// availabilityQuery is the GET body of the Dentalink availability
// request; Medilink sends the same filters as query parameters.
type availabilityQuery struct {
	IDsDentista []int  `json:"ids_dentista"`
	IDSucursal  int    `json:"id_sucursal"`
	FechaInicio string `json:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin"`
}

// wireSlot is one open block: start time plus the professional's
// interval in minutes.
type wireSlot struct {
	HoraInicio string `json:"hora_inicio"`
	Intervalo  int    `json:"intervalo"`
}

// availabilityData maps professional id -> date -> open blocks.
type availabilityData map[string]map[string][]wireSlot

type scheduleAppointmentPayload struct {
	IDDentista    int    `json:"id_dentista,omitempty"`
	IDProfesional int    `json:"id_profesional,omitempty"`
	IDSucursal    int    `json:"id_sucursal"`
	IDEstado      int    `json:"id_estado"`
	IDSillon      int    `json:"id_sillon"`
	IDPaciente    int    `json:"id_paciente"`
	Fecha         string `json:"fecha"`
	HoraInicio    string `json:"hora_inicio"`
	Duracion      int    `json:"duracion"`
	Comentario    string `json:"comentario"`
	Videoconsulta *int   `json:"videoconsulta,omitempty"`
}

type wireAppointment struct {
	ID         int    `json:"id"`
	IDPaciente int    `json:"id_paciente"`
	IDEstado   int    `json:"id_estado"`
	Fecha      string `json:"fecha"`
	HoraInicio string `json:"hora_inicio"`
	Duracion   int    `json:"duracion"`
	EstadoCita string `json:"estado_cita"`
}

type updateAppointmentPayload struct {
	IDEstado          int    `json:"id_estado"`
	Comentarios       string `json:"comentarios,omitempty"`
	Comentario        string `json:"comentario,omitempty"`
	FlagNotificar     *int   `json:"flag_notificar_anulacion,omitempty"`
}

type wireTreatment struct {
	ID          int    `json:"id"`
	Nombre      string `json:"nombre"`
	Estado      string `json:"estado"`
	Fecha       string `json:"fecha"`
	NombreDentista string `json:"nombre_dentista"`
	Observacion string `json:"observacion"`
}

// apiError is the upstream error envelope; the message hides in a few
// different spots depending on the endpoint.
type apiError struct {
	Error   interface{} `json:"error"`
	Message string      `json:"message"`
}
