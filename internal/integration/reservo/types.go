package reservo

// Wire shapes of the Reservo public API v2. List endpoints paginate
// with resultados plus a pagina_siguiente cursor URL.

const (
	baseURL              = "https://reservo.cl/APIpublica/v2"
	createAppointmentURL = "https://reservo.cl/makereserva/confirmApptAPI/"

	// Appointment state codes accepted by PUT /citas/.
	stateConfirmed = "C"
	stateSuspended = "S"

	// Hard cap on cursor-following for paginated listings.
	maxPages = 10
)

type paginated[T any] struct {
	CantidadElementos int    `json:"cantidad_elementos"`
	PaginaSiguiente   string `json:"pagina_siguiente"`
	Resultados        []T    `json:"resultados"`
}

type wirePatient struct {
	UUID            string `json:"uuid"`
	Identificador   string `json:"identificador"`
	Nombre          string `json:"nombre"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	Telefono1       string `json:"telefono_1"`
	Mail            string `json:"mail"`
	FechaNacimiento string `json:"fecha_nacimiento"`
}

type createPatientPayload struct {
	Identificador   string `json:"identificador"`
	Nombre          string `json:"nombre"`
	ApellidoPaterno string `json:"apellido_paterno,omitempty"`
	Telefono1       string `json:"telefono_1,omitempty"`
	Mail            string `json:"mail,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
}

type wireProfessional struct {
	UUID          string `json:"uuid"`
	Agenda        string `json:"agenda"`
	Identificador string `json:"identificador"`
	Nombre        string `json:"nombre"`
	Cargo         string `json:"cargo"`
}

func (p wireProfessional) uuid() string {
	if p.UUID != "" {
		return p.UUID
	}
	return p.Agenda
}

type wireBranch struct {
	Sucursal  string `json:"sucursal"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
	Comuna    string `json:"comuna"`
	Region    string `json:"region"`
}

type wireTreatment struct {
	UUID        string `json:"uuid"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

// availabilitySlot is one day of the weekly availability answer,
// grouped by branch then professional.
type availabilitySlot struct {
	Fecha      string `json:"fecha"`
	Sucursales []struct {
		UUID          string `json:"uuid"`
		Nombre        string `json:"nombre"`
		Profesionales []struct {
			Agenda           string   `json:"agenda"`
			Nombre           string   `json:"nombre"`
			HorasDisponibles []string `json:"horas_disponibles"`
		} `json:"profesionales"`
	} `json:"sucursales"`
}

type createAppointmentPayload struct {
	Sucursal         string   `json:"sucursal"`
	URL              string   `json:"url"`
	TratamientosUUID []string `json:"tratamientos_uuid"`
	AgendasUUID      []string `json:"agendas_uuid"`
	Calendario       struct {
		TimeZone string `json:"time_zone"`
		Date     string `json:"date"`
		Hour     string `json:"hour"`
	} `json:"calendario"`
	Cliente struct {
		UUID string `json:"uuid"`
	} `json:"cliente"`
}

type createAppointmentResponse struct {
	Citas []wireAppointment `json:"citas"`
}

type wireAppointment struct {
	UUID   string `json:"uuid"`
	Inicio string `json:"inicio"`
	Fin    string `json:"fin"`
	Estado struct {
		Codigo      string `json:"codigo"`
		Descripcion string `json:"descripcion"`
	} `json:"estado"`
	Cliente *struct {
		UUID          string `json:"uuid"`
		Identificador string `json:"identificador"`
		Nombre        string `json:"nombre"`
	} `json:"cliente"`
	Tratamientos []struct {
		UUID   string `json:"uuid"`
		Nombre string `json:"nombre"`
	} `json:"tratamientos"`
}

type updateAppointmentPayload struct {
	UUID         string `json:"uuid"`
	EstadoCodigo string `json:"estado_codigo"`
}

// apiError is Reservo's error envelope: errores is either a string or
// a field -> messages map.
type apiError struct {
	Errores interface{} `json:"errores"`
}
