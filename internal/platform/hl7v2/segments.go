package hl7v2

// Segment is implemented by every typed segment and by *GenericSegment.
// Each typed segment keeps the generic tree it was mapped from, so the
// generic form is always recoverable without loss.
type Segment interface {
	SegmentType() string
	Generic() *GenericSegment
}

type segmentBase struct {
	source *GenericSegment
}

func (b segmentBase) SegmentType() string      { return b.source.Type }
func (b segmentBase) Generic() *GenericSegment { return b.source }

// MessageHeader is the MSH segment.
type MessageHeader struct {
	segmentBase `json:"-"`

	FieldSeparator            string      `json:"fieldSeparator"`
	EncodingCharacters        string      `json:"encodingCharacters"`
	SendingApplication        HD          `json:"sendingApplication"`
	SendingFacility           HD          `json:"sendingFacility"`
	ReceivingApplication      HD          `json:"receivingApplication"`
	ReceivingFacility         HD          `json:"receivingFacility"`
	DateTimeOfMessage         DateTime    `json:"dateTimeOfMessage"`
	Security                  string      `json:"security,omitempty"`
	MessageType               MessageType `json:"messageType"`
	MessageControlID          string      `json:"messageControlId"`
	ProcessingID              string      `json:"processingId"`
	VersionID                 string      `json:"versionId"`
	SequenceNumber            *int        `json:"sequenceNumber,omitempty"`
	ContinuationPointer       string      `json:"continuationPointer,omitempty"`
	AcceptAcknowledgment      string      `json:"acceptAcknowledgmentType,omitempty"`
	ApplicationAcknowledgment string      `json:"applicationAcknowledgmentType,omitempty"`
	CountryCode               string      `json:"countryCode,omitempty"`
	CharacterSets             []string    `json:"characterSets,omitempty"`
	PrincipalLanguage         CWE         `json:"principalLanguage"`
}

// EventType is the EVN segment.
type EventType struct {
	segmentBase `json:"-"`

	EventTypeCode    string   `json:"eventTypeCode,omitempty"`
	RecordedDateTime DateTime `json:"recordedDateTime"`
	PlannedDateTime  DateTime `json:"plannedDateTime"`
	EventReasonCode  CWE      `json:"eventReasonCode"`
	OperatorIDs      []XCN    `json:"operatorIds,omitempty"`
	EventOccurred    DateTime `json:"eventOccurred"`
}

// PatientIdentification is the PID segment.
type PatientIdentification struct {
	segmentBase `json:"-"`

	SetID                 *int     `json:"setId,omitempty"`
	PatientID             CX       `json:"patientId"`
	PatientIdentifierList []CX     `json:"patientIdentifierList"`
	AlternatePatientIDs   []CX     `json:"alternatePatientIds,omitempty"`
	PatientName           []XPN    `json:"patientName"`
	MothersMaidenName     []XPN    `json:"mothersMaidenName,omitempty"`
	DateOfBirth           DateTime `json:"dateOfBirth"`
	AdministrativeSex     string   `json:"administrativeSex,omitempty"`
	Race                  []CWE    `json:"race,omitempty"`
	Address               []XAD    `json:"address,omitempty"`
	PhoneHome             []XTN    `json:"phoneHome,omitempty"`
	PhoneBusiness         []XTN    `json:"phoneBusiness,omitempty"`
	PrimaryLanguage       CWE      `json:"primaryLanguage"`
	MaritalStatus         CWE      `json:"maritalStatus"`
	Religion              CWE      `json:"religion"`
	AccountNumber         CX       `json:"accountNumber"`
	SSN                   string   `json:"ssn,omitempty"`
	EthnicGroup           []CWE    `json:"ethnicGroup,omitempty"`
	BirthPlace            string   `json:"birthPlace,omitempty"`
	MultipleBirth         string   `json:"multipleBirthIndicator,omitempty"`
	BirthOrder            *int     `json:"birthOrder,omitempty"`
	DeathDateTime         DateTime `json:"deathDateTime"`
	DeathIndicator        string   `json:"deathIndicator,omitempty"`
}

// PatientVisit is the PV1 segment.
type PatientVisit struct {
	segmentBase `json:"-"`

	SetID                *int     `json:"setId,omitempty"`
	PatientClass         string   `json:"patientClass,omitempty"`
	AssignedLocation     PL       `json:"assignedLocation"`
	AdmissionType        string   `json:"admissionType,omitempty"`
	PreadmitNumber       CX       `json:"preadmitNumber"`
	PriorLocation        PL       `json:"priorLocation"`
	AttendingDoctor      []XCN    `json:"attendingDoctor,omitempty"`
	ReferringDoctor      []XCN    `json:"referringDoctor,omitempty"`
	ConsultingDoctor     []XCN    `json:"consultingDoctor,omitempty"`
	HospitalService      string   `json:"hospitalService,omitempty"`
	AdmitSource          string   `json:"admitSource,omitempty"`
	VIPIndicator         string   `json:"vipIndicator,omitempty"`
	AdmittingDoctor      []XCN    `json:"admittingDoctor,omitempty"`
	PatientType          string   `json:"patientType,omitempty"`
	VisitNumber          CX       `json:"visitNumber"`
	DischargeDisposition string   `json:"dischargeDisposition,omitempty"`
	ServicingFacility    string   `json:"servicingFacility,omitempty"`
	AccountStatus        string   `json:"accountStatus,omitempty"`
	AdmitDateTime        DateTime `json:"admitDateTime"`
	DischargeDateTime    DateTime `json:"dischargeDateTime"`
	VisitIndicator       string   `json:"visitIndicator,omitempty"`
}

// PatientVisitAdditional is the PV2 segment.
type PatientVisitAdditional struct {
	segmentBase `json:"-"`

	PriorPendingLocation      PL       `json:"priorPendingLocation"`
	AccommodationCode         CWE      `json:"accommodationCode"`
	AdmitReason               CWE      `json:"admitReason"`
	TransferReason            CWE      `json:"transferReason"`
	ExpectedAdmitDateTime     DateTime `json:"expectedAdmitDateTime"`
	ExpectedDischargeDateTime DateTime `json:"expectedDischargeDateTime"`
	EstimatedLengthOfStay     *int     `json:"estimatedLengthOfStay,omitempty"`
	ActualLengthOfStay        *int     `json:"actualLengthOfStay,omitempty"`
	VisitDescription          string   `json:"visitDescription,omitempty"`
	VisitPriorityCode         string   `json:"visitPriorityCode,omitempty"`
}

// CommonOrder is the ORC segment.
type CommonOrder struct {
	segmentBase `json:"-"`

	OrderControl         string   `json:"orderControl,omitempty"`
	PlacerOrderNumber    EI       `json:"placerOrderNumber"`
	FillerOrderNumber    EI       `json:"fillerOrderNumber"`
	PlacerGroupNumber    EI       `json:"placerGroupNumber"`
	OrderStatus          string   `json:"orderStatus,omitempty"`
	ResponseFlag         string   `json:"responseFlag,omitempty"`
	TransactionDateTime  DateTime `json:"transactionDateTime"`
	EnteredBy            []XCN    `json:"enteredBy,omitempty"`
	VerifiedBy           []XCN    `json:"verifiedBy,omitempty"`
	OrderingProvider     []XCN    `json:"orderingProvider,omitempty"`
	EntererLocation      PL       `json:"entererLocation"`
	CallBackPhone        []XTN    `json:"callBackPhone,omitempty"`
	EffectiveDateTime    DateTime `json:"effectiveDateTime"`
	OrderControlReason   CWE      `json:"orderControlReason"`
	EnteringOrganization CWE      `json:"enteringOrganization"`
}

// ObservationRequest is the OBR segment.
type ObservationRequest struct {
	segmentBase `json:"-"`

	SetID                *int     `json:"setId,omitempty"`
	PlacerOrderNumber    EI       `json:"placerOrderNumber"`
	FillerOrderNumber    EI       `json:"fillerOrderNumber"`
	UniversalServiceID   CWE      `json:"universalServiceId"`
	Priority             string   `json:"priority,omitempty"`
	RequestedDateTime    DateTime `json:"requestedDateTime"`
	ObservationDateTime  DateTime `json:"observationDateTime"`
	ObservationEndTime   DateTime `json:"observationEndDateTime"`
	SpecimenActionCode   string   `json:"specimenActionCode,omitempty"`
	RelevantClinicalInfo string   `json:"relevantClinicalInfo,omitempty"`
	OrderingProvider     []XCN    `json:"orderingProvider,omitempty"`
	ResultsReportedAt    DateTime `json:"resultsReportedAt"`
	DiagnosticServiceID  string   `json:"diagnosticServiceSectionId,omitempty"`
	ResultStatus         string   `json:"resultStatus,omitempty"`
	ReasonForStudy       []CWE    `json:"reasonForStudy,omitempty"`
}

// ObservationResult is the OBX segment.
type ObservationResult struct {
	segmentBase `json:"-"`

	SetID                 *int   `json:"setId,omitempty"`
	ValueType             string `json:"valueType,omitempty"`
	ObservationIdentifier CWE    `json:"observationIdentifier"`
	ObservationSubID      string `json:"observationSubId,omitempty"`
	// ObservationValue holds the decoded OBX-5 repetitions; its shape
	// depends on ValueType.
	ObservationValue []Repetition `json:"observationValue,omitempty"`
	// NumericValue is set when ValueType is NM and OBX-5 parses.
	NumericValue *float64 `json:"numericValue,omitempty"`
	// CodedValue is set when ValueType is CE or CWE.
	CodedValue          *CWE     `json:"codedValue,omitempty"`
	Units               CWE      `json:"units"`
	ReferenceRange      string   `json:"referenceRange,omitempty"`
	AbnormalFlags       []string `json:"abnormalFlags,omitempty"`
	ResultStatus        string   `json:"resultStatus,omitempty"`
	ObservationDateTime DateTime `json:"observationDateTime"`
	ProducerID          CWE      `json:"producerId"`
	ResponsibleObserver []XCN    `json:"responsibleObserver,omitempty"`
	ObservationMethod   []CWE    `json:"observationMethod,omitempty"`
	AnalysisDateTime    DateTime `json:"analysisDateTime"`
}

// Note is the NTE segment.
type Note struct {
	segmentBase `json:"-"`

	SetID           *int     `json:"setId,omitempty"`
	SourceOfComment string   `json:"sourceOfComment,omitempty"`
	Comment         []string `json:"comment,omitempty"`
	CommentType     CWE      `json:"commentType"`
}

// Diagnosis is the DG1 segment.
type Diagnosis struct {
	segmentBase `json:"-"`

	SetID               *int     `json:"setId,omitempty"`
	CodingMethod        string   `json:"codingMethod,omitempty"`
	DiagnosisCode       CWE      `json:"diagnosisCode"`
	Description         string   `json:"description,omitempty"`
	DiagnosisDateTime   DateTime `json:"diagnosisDateTime"`
	DiagnosisType       string   `json:"diagnosisType,omitempty"`
	Priority            *int     `json:"priority,omitempty"`
	DiagnosingClinician []XCN    `json:"diagnosingClinician,omitempty"`
}

// Allergy is the AL1 segment.
type Allergy struct {
	segmentBase `json:"-"`

	SetID              *int     `json:"setId,omitempty"`
	AllergenType       CWE      `json:"allergenType"`
	AllergenCode       CWE      `json:"allergenCode"`
	Severity           CWE      `json:"severity"`
	Reactions          []string `json:"reactions,omitempty"`
	IdentificationDate DateTime `json:"identificationDate"`
}

// Insurance is the IN1 segment.
type Insurance struct {
	segmentBase `json:"-"`

	SetID                 *int     `json:"setId,omitempty"`
	HealthPlanID          CWE      `json:"healthPlanId"`
	CompanyIDs            []CX     `json:"companyIds,omitempty"`
	CompanyName           []XON    `json:"companyName,omitempty"`
	CompanyAddress        []XAD    `json:"companyAddress,omitempty"`
	CompanyContact        []XPN    `json:"companyContact,omitempty"`
	CompanyPhone          []XTN    `json:"companyPhone,omitempty"`
	GroupNumber           string   `json:"groupNumber,omitempty"`
	GroupName             []XON    `json:"groupName,omitempty"`
	PlanEffectiveDate     DateTime `json:"planEffectiveDate"`
	PlanExpirationDate    DateTime `json:"planExpirationDate"`
	PlanType              string   `json:"planType,omitempty"`
	NameOfInsured         []XPN    `json:"nameOfInsured,omitempty"`
	RelationshipToPatient CWE      `json:"relationshipToPatient"`
	InsuredDateOfBirth    DateTime `json:"insuredDateOfBirth"`
	InsuredAddress        []XAD    `json:"insuredAddress,omitempty"`
	PolicyNumber          string   `json:"policyNumber,omitempty"`
}

// MessageAcknowledgment is the MSA segment.
type MessageAcknowledgment struct {
	segmentBase `json:"-"`

	AcknowledgmentCode     AckCode `json:"acknowledgmentCode"`
	MessageControlID       string  `json:"messageControlId"`
	TextMessage            string  `json:"textMessage,omitempty"`
	ExpectedSequenceNumber *int    `json:"expectedSequenceNumber,omitempty"`
	ErrorCondition         CWE     `json:"errorCondition"`
}

// ErrorLocation is the ERL data type (ERR-2), or the location part of the
// pre-2.5 ELD type (ERR-1).
type ErrorLocation struct {
	SegmentID       string `json:"segmentId,omitempty"`
	SegmentSequence *int   `json:"segmentSequence,omitempty"`
	FieldPosition   *int   `json:"fieldPosition,omitempty"`
}

// ErrorSegment is the ERR segment.
type ErrorSegment struct {
	segmentBase `json:"-"`

	Location              []ErrorLocation `json:"location,omitempty"`
	ErrorCode             CWE             `json:"errorCode"`
	Severity              string          `json:"severity,omitempty"`
	ApplicationErrorCode  CWE             `json:"applicationErrorCode"`
	DiagnosticInformation string          `json:"diagnosticInformation,omitempty"`
	UserMessage           string          `json:"userMessage,omitempty"`
}
