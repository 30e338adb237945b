package healthatom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

const defaultTimezone = "America/Santiago"

// profile captures the wire-level differences between the Dentalink
// and Medilink APIs. Everything else is shared.
type profile struct {
	name              string
	professionalsPath string
	treatmentsPath    string
	// dentistFields selects the Dentalink field names (id_dentista,
	// ids_dentista, comentarios) over the Medilink ones.
	dentistFields bool
	// availabilityInQuery sends availability filters as query
	// parameters; Dentalink takes them as a GET body instead.
	availabilityInQuery bool
	// videoconsulta is sent on Medilink appointment creation.
	videoconsulta bool
}

var dentalinkProfile = profile{
	name:              "dentalink",
	professionalsPath: "dentistas",
	treatmentsPath:    "tratamientos",
	dentistFields:     true,
}

var medilinkProfile = profile{
	name:                "medilink",
	professionalsPath:   "profesionales",
	treatmentsPath:      "atenciones",
	availabilityInQuery: true,
	videoconsulta:       true,
}

// Adapter implements every capability against one HealthAtom API.
type Adapter struct {
	typ    model.IntegrationType
	prof   profile
	client *wireClient
	// profV6 serves Medilink professional reads, which live on the v6
	// API while everything else is v5. Nil for Dentalink.
	profV6    *wireClient
	meta      model.IntegrationMetadata
	endpoints []model.IntegrationEndpoint
}

// Option overrides adapter wiring, used by tests to point at stubs.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.client.baseURL = u }
}

// WithProfessionalsURL overrides the Medilink v6 professionals URL.
func WithProfessionalsURL(u string) Option {
	return func(a *Adapter) {
		if a.profV6 != nil {
			a.profV6.baseURL = u
		}
	}
}

// WithTimeout overrides the HTTP timeout on every wire client.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.client.http.Timeout = d
		if a.profV6 != nil {
			a.profV6.http.Timeout = d
		}
	}
}

// NewDentalink builds the Dentalink adapter.
func NewDentalink(opts ...Option) *Adapter {
	a := &Adapter{
		typ:       model.TypeDentalink,
		prof:      dentalinkProfile,
		client:    newWireClient(dentalinkBaseURL, "dentalink"),
		meta:      dentalinkMetadata(),
		endpoints: healthAtomEndpoints(model.TypeDentalink),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewMedilink builds the Medilink adapter.
func NewMedilink(opts ...Option) *Adapter {
	a := &Adapter{
		typ:       model.TypeMedilink,
		prof:      medilinkProfile,
		client:    newWireClient(medilinkBaseURL, "medilink"),
		profV6:    newWireClient(medilinkProfessionalV6, "medilink"),
		meta:      medilinkMetadata(),
		endpoints: healthAtomEndpoints(model.TypeMedilink),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() model.IntegrationType { return a.typ }

func (a *Adapter) Metadata() model.IntegrationMetadata { return a.meta }

func (a *Adapter) Endpoints() []model.IntegrationEndpoint { return a.endpoints }

func (a *Adapter) apiKey(config model.IntegrationConfig) (string, error) {
	key := config.GetString("apiKey")
	if key == "" {
		return "", errors.Configuration(fmt.Sprintf("%s integration is missing apiKey", a.prof.name), nil)
	}
	return key, nil
}

func (a *Adapter) location(config model.IntegrationConfig) *time.Location {
	tz := config.GetString("timezone")
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Str("timezone", tz).Msg("unknown timezone, falling back to default")
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	return loc
}

// TestConnection probes the branches endpoint, the cheapest
// authenticated read both APIs expose.
func (a *Adapter) TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	var env listEnvelope[wireBranch]
	if err := a.client.get(ctx, key, "sucursales", nil, &env); err != nil {
		return &model.ConnectionStatus{Success: false, Message: err.Error()}, nil
	}
	return &model.ConnectionStatus{
		Success: true,
		Message: fmt.Sprintf("connected to %s, %d branches visible", a.prof.name, len(env.Data)),
	}, nil
}

// --- clinic directory ---

func (a *Adapter) GetBranches(ctx context.Context, config model.IntegrationConfig) ([]model.BranchResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	var env listEnvelope[wireBranch]
	if err := a.client.get(ctx, key, "sucursales", nil, &env); err != nil {
		return nil, err
	}
	out := make([]model.BranchResult, 0, len(env.Data))
	for _, b := range env.Data {
		out = append(out, normalizeBranch(b))
	}
	return out, nil
}

func (a *Adapter) GetProfessionals(ctx context.Context, config model.IntegrationConfig) ([]model.ProfessionalResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	raw, err := a.fetchProfessionals(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]model.ProfessionalResult, 0, len(raw))
	for _, p := range raw {
		out = append(out, normalizeProfessional(p))
	}
	return out, nil
}

func (a *Adapter) GetProfessionalsByBranch(ctx context.Context, config model.IntegrationConfig, branchID int) ([]model.ProfessionalResult, error) {
	all, err := a.GetProfessionals(ctx, config)
	if err != nil {
		return nil, err
	}
	out := make([]model.ProfessionalResult, 0, len(all))
	for _, p := range all {
		for _, b := range p.Branches {
			if b == branchID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (a *Adapter) fetchProfessionals(ctx context.Context, apiKey string) ([]wireProfessional, error) {
	if a.profV6 != nil {
		// Medilink serves professionals on v6 only.
		var env listEnvelope[wireProfessional]
		q := url.Values{"limit": {"100"}}
		if err := a.profV6.get(ctx, apiKey, "", q, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}
	var env listEnvelope[wireProfessional]
	if err := a.client.get(ctx, apiKey, a.prof.professionalsPath, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (a *Adapter) professionalByID(ctx context.Context, apiKey string, id int) (*wireProfessional, error) {
	if a.profV6 != nil {
		var env itemEnvelope[wireProfessional]
		if err := a.profV6.get(ctx, apiKey, "/"+strconv.Itoa(id), nil, &env); err != nil {
			return nil, err
		}
		return &env.Data, nil
	}
	raw, err := a.fetchProfessionals(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	for i := range raw {
		if raw[i].ID == id {
			return &raw[i], nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("professional %d in %s", id, a.prof.name), nil)
}

// --- patients ---

func (a *Adapter) SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	return a.searchPatientByRUT(ctx, key, params.Identifier)
}

func (a *Adapter) searchPatientByRUT(ctx context.Context, apiKey, identifier string) (*model.PatientResult, error) {
	rut := FormatRUT(identifier)
	filter, _ := json.Marshal(map[string]interface{}{"rut": map[string]string{"eq": rut}})
	q := url.Values{"q": {string(filter)}}

	var env listEnvelope[wirePatient]
	if err := a.client.get(ctx, apiKey, "pacientes", q, &env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, errors.NotFound(fmt.Sprintf("patient %s in %s", rut, a.prof.name), nil)
	}
	res := normalizePatient(env.Data[0])
	return &res, nil
}

func (a *Adapter) CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	rut := FormatRUT(params.Identifier)

	// Upstream rejects duplicate RUTs with an opaque 400, so look the
	// patient up first and return the existing record.
	if existing, err := a.searchPatientByRUT(ctx, key, rut); err == nil {
		return existing, nil
	} else if !errors.IsKind(err, errors.KindNotFound) {
		return nil, err
	}

	payload := createPatientPayload{
		Nombre:          params.FirstName,
		Apellidos:       params.LastName,
		RUT:             rut,
		Celular:         params.Phone,
		Email:           params.Email,
		FechaNacimiento: params.BirthDate,
	}
	var env itemEnvelope[wirePatient]
	if err := a.client.post(ctx, key, "pacientes/", payload, &env); err != nil {
		return nil, err
	}
	res := normalizePatient(env.Data)
	return &res, nil
}

// --- treatments ---

func (a *Adapter) GetPatientTreatments(ctx context.Context, config model.IntegrationConfig, params model.GetTreatmentsParams) ([]model.TreatmentResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	patient, err := a.searchPatientByRUT(ctx, key, params.PatientIdentifier)
	if err != nil {
		return nil, err
	}

	filter, _ := json.Marshal(map[string]interface{}{"id_paciente": map[string]int{"eq": patient.ID}})
	q := url.Values{"q": {string(filter)}}

	var env listEnvelope[wireTreatment]
	if err := a.client.get(ctx, key, a.prof.treatmentsPath, q, &env); err != nil {
		return nil, err
	}
	out := make([]model.TreatmentResult, 0, len(env.Data))
	for _, t := range env.Data {
		out = append(out, model.TreatmentResult{
			ID:           t.ID,
			Name:         t.Nombre,
			Status:       t.Estado,
			Date:         t.Fecha,
			Professional: t.NombreDentista,
			Notes:        t.Observacion,
		})
	}
	return out, nil
}

// --- availability ---

func (a *Adapter) SearchAvailability(ctx context.Context, config model.IntegrationConfig, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	loc := a.location(config)
	now := time.Now().In(loc)

	dateFrom := params.StartDate
	if dateFrom == "" {
		dateFrom = now.Format("2006-01-02")
	}
	start, err := time.ParseInLocation("2006-01-02", dateFrom, loc)
	if err != nil {
		return nil, errors.UpstreamRejected(fmt.Sprintf("invalid start date %q", dateFrom), err)
	}
	dateTo := start.AddDate(0, 0, 6).Format("2006-01-02")

	var env itemEnvelope[availabilityData]
	if a.prof.availabilityInQuery {
		q := url.Values{
			"id_sucursal":  {strconv.Itoa(params.BranchID)},
			"fecha_inicio": {dateFrom},
			"fecha_fin":    {dateTo},
		}
		for _, id := range params.ProfessionalIDs {
			q.Add("ids_profesional[]", strconv.Itoa(id))
		}
		if err := a.client.get(ctx, key, "horariosdisponibles", q, &env); err != nil {
			return nil, err
		}
	} else {
		// Dentalink takes its availability filters as a GET body.
		query := availabilityQuery{
			IDSucursal:  params.BranchID,
			IDsDentista: params.ProfessionalIDs,
			FechaInicio: dateFrom,
			FechaFin:    dateTo,
		}
		if err := a.client.do(ctx, key, "GET", a.client.baseURL+"horariosdisponibles", query, &env); err != nil {
			return nil, err
		}
	}

	names := a.professionalNames(ctx, key, params.ProfessionalIDs)
	availability := normalizeAvailability(env.Data, params.ProfessionalIDs, names, params.AppointmentDuration, loc, now)

	return &model.AvailabilityResult{
		Availability: availability,
		DateFrom:     dateFrom,
		DateTo:       dateTo,
	}, nil
}

func (a *Adapter) professionalNames(ctx context.Context, apiKey string, ids []int) map[int]string {
	names := make(map[int]string, len(ids))
	raw, err := a.fetchProfessionals(ctx, apiKey)
	if err != nil {
		log.Warn().Err(err).Str("api", a.prof.name).Msg("could not resolve professional names")
		return names
	}
	byID := make(map[int]wireProfessional, len(raw))
	for _, p := range raw {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			names[id] = fullName(p.Nombre, p.lastName())
		}
	}
	return names
}

// --- appointments ---

func (a *Adapter) ScheduleAppointment(ctx context.Context, config model.IntegrationConfig, params model.ScheduleAppointmentParams) (*model.AppointmentResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	patient, err := a.searchPatientByRUT(ctx, key, params.PatientIdentifier)
	if err != nil {
		return nil, err
	}

	duration := params.Duration
	if duration == 0 {
		prof, err := a.professionalByID(ctx, key, params.ProfessionalID)
		if err != nil || prof.Intervalo == 0 {
			return nil, errors.UpstreamRejected("appointment duration not given and professional interval unknown", err)
		}
		duration = prof.Intervalo
	}

	notes := params.Notes
	if notes == "" {
		notes = "Scheduled via gateway"
	}
	payload := scheduleAppointmentPayload{
		IDSucursal: params.BranchID,
		IDEstado:   stateScheduled,
		IDSillon:   1,
		IDPaciente: patient.ID,
		Fecha:      params.Date,
		HoraInicio: clockWithSeconds(params.Time),
		Duracion:   duration,
		Comentario: notes,
	}
	if a.prof.dentistFields {
		payload.IDDentista = params.ProfessionalID
	} else {
		payload.IDProfesional = params.ProfessionalID
	}
	if a.prof.videoconsulta {
		zero := 0
		payload.Videoconsulta = &zero
	}

	var env itemEnvelope[wireAppointment]
	if err := a.client.post(ctx, key, "citas/", payload, &env); err != nil {
		return nil, err
	}

	log.Info().Str("api", a.prof.name).Int("appointment_id", env.Data.ID).Msg("appointment scheduled")
	return &model.AppointmentResult{
		ID:             env.Data.ID,
		PatientID:      patient.ID,
		ProfessionalID: params.ProfessionalID,
		BranchID:       params.BranchID,
		Date:           params.Date,
		Time:           clockShort(params.Time),
		Duration:       duration,
		Status:         "scheduled",
	}, nil
}

func (a *Adapter) CancelAppointment(ctx context.Context, config model.IntegrationConfig, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	path := "citas/" + strconv.Itoa(params.AppointmentID)

	// Verify the appointment exists before mutating; a 404 here lets
	// the dual adapter move on to the sibling API.
	var existing itemEnvelope[wireAppointment]
	if err := a.client.get(ctx, key, path, nil, &existing); err != nil {
		return nil, err
	}

	payload := updateAppointmentPayload{IDEstado: stateCanceled}
	if a.prof.dentistFields {
		notify := 1
		payload.Comentarios = "Cancelled via gateway"
		payload.FlagNotificar = &notify
	} else {
		payload.Comentario = "Cancelled via gateway"
	}
	if err := a.client.put(ctx, key, path, payload, nil); err != nil {
		return nil, err
	}

	return &model.CancelAppointmentResult{
		Success:       true,
		Message:       fmt.Sprintf("appointment %d cancelled", params.AppointmentID),
		AppointmentID: params.AppointmentID,
	}, nil
}

func (a *Adapter) ConfirmAppointment(ctx context.Context, config model.IntegrationConfig, params model.ConfirmAppointmentParams) (*model.AppointmentResult, error) {
	key, err := a.apiKey(config)
	if err != nil {
		return nil, err
	}
	stateID := config.GetInt("confirmedStateId")
	if stateID == 0 {
		stateID = stateScheduled
	}
	path := "citas/" + strconv.Itoa(params.AppointmentID)

	var existing itemEnvelope[wireAppointment]
	if err := a.client.get(ctx, key, path, nil, &existing); err != nil {
		return nil, err
	}
	if err := a.client.put(ctx, key, path, map[string]int{"id_estado": stateID}, nil); err != nil {
		return nil, err
	}

	cita := existing.Data
	return &model.AppointmentResult{
		ID:        cita.ID,
		PatientID: cita.IDPaciente,
		Date:      cita.Fecha,
		Time:      clockShort(cita.HoraInicio),
		Duration:  cita.Duracion,
		Status:    "confirmed",
		Message:   fmt.Sprintf("appointment %d confirmed", cita.ID),
	}, nil
}

// --- normalization helpers ---

func normalizeBranch(b wireBranch) model.BranchResult {
	return model.BranchResult{
		ID:       b.ID,
		Name:     b.Nombre,
		Phone:    b.Telefono,
		City:     b.Ciudad,
		District: b.Comuna,
		Address:  b.Direccion,
		Enabled:  b.Habilitada == nil || *b.Habilitada,
	}
}

func normalizeProfessional(p wireProfessional) model.ProfessionalResult {
	return model.ProfessionalResult{
		ID:               p.ID,
		Identifier:       p.RUT,
		FirstName:        p.Nombre,
		LastName:         p.lastName(),
		FullName:         fullName(p.Nombre, p.lastName()),
		Specialty:        p.Especialidad,
		Interval:         p.Intervalo,
		Branches:         p.branchIDs(),
		Enabled:          p.Habilitado == nil || *p.Habilitado,
		OnlineScheduling: p.AgendaOnline == nil || *p.AgendaOnline,
	}
}

func normalizePatient(p wirePatient) model.PatientResult {
	return model.PatientResult{
		ID:         p.ID,
		Identifier: p.RUT,
		FirstName:  p.Nombre,
		LastName:   p.Apellidos,
		FullName:   fullName(p.Nombre, p.Apellidos),
		Phone:      p.Celular,
		Email:      p.Email,
		BirthDate:  p.FechaNacimiento,
	}
}

func fullName(first, last string) string {
	if last == "" {
		return first
	}
	return first + " " + last
}

// normalizeAvailability turns the upstream per-professional slot map
// into normalized entries. Every requested professional gets an entry,
// with an empty Dates map when nothing is open. Past slots are dropped
// and, when a duration is requested, only starts with enough
// consecutive open blocks survive.
func normalizeAvailability(data availabilityData, requested []int, names map[int]string, duration int, loc *time.Location, now time.Time) []model.ProfessionalAvailability {
	out := make([]model.ProfessionalAvailability, 0, len(requested))
	for _, profID := range requested {
		entry := model.ProfessionalAvailability{
			ProfessionalID:   profID,
			ProfessionalName: names[profID],
			Dates:            map[string][]string{},
		}
		if entry.ProfessionalName == "" {
			entry.ProfessionalName = fmt.Sprintf("Professional %d", profID)
		}

		for date, slots := range data[strconv.Itoa(profID)] {
			future := futureSlots(slots, date, loc, now)
			var times []string
			if duration > 0 {
				times = filterByDuration(future, duration)
			} else {
				times = make([]string, 0, len(future))
				for _, s := range future {
					times = append(times, clockShort(s.HoraInicio))
				}
			}
			if len(times) > 0 {
				sort.Strings(times)
				entry.Dates[date] = times
			}
		}
		out = append(out, entry)
	}
	return out
}

func futureSlots(slots []wireSlot, date string, loc *time.Location, now time.Time) []wireSlot {
	out := make([]wireSlot, 0, len(slots))
	for _, s := range slots {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clockWithSeconds(s.HoraInicio), loc)
		if err != nil {
			continue
		}
		if t.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// filterByDuration keeps starts whose own block plus immediately
// consecutive blocks cover the required minutes.
func filterByDuration(slots []wireSlot, required int) []string {
	sorted := append([]wireSlot(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].HoraInicio < sorted[j].HoraInicio })

	var valid []string
	for i, slot := range sorted {
		if slot.Intervalo == 0 {
			continue
		}
		start, err := parseClock(slot.HoraInicio)
		if err != nil {
			continue
		}
		available := slot.Intervalo
		expected := start.Add(time.Duration(slot.Intervalo) * time.Minute)

		for j := i + 1; j < len(sorted) && available < required; j++ {
			next, err := parseClock(sorted[j].HoraInicio)
			if err != nil || !next.Equal(expected) {
				break
			}
			step := sorted[j].Intervalo
			if step == 0 {
				step = slot.Intervalo
			}
			available += step
			expected = next.Add(time.Duration(step) * time.Minute)
		}
		if available >= required {
			valid = append(valid, start.Format("15:04"))
		}
	}
	return valid
}

func parseClock(s string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04", s)
}

func clockShort(s string) string {
	if t, err := parseClock(s); err == nil {
		return t.Format("15:04")
	}
	return s
}

func clockWithSeconds(s string) string {
	if t, err := parseClock(s); err == nil {
		return t.Format("15:04:05")
	}
	return s
}
