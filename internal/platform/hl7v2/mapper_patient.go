package hl7v2

func mapPatientIdentification(r *fieldReader) Segment {
	return &PatientIdentification{
		segmentBase:           r.base(),
		SetID:                 r.integer(1),
		PatientID:             r.cx(2),
		PatientIdentifierList: repeated(r, 3, parseCX),
		AlternatePatientIDs:   repeated(r, 4, parseCX),
		PatientName:           repeated(r, 5, parseXPN),
		MothersMaidenName:     repeated(r, 6, parseXPN),
		DateOfBirth:           r.dateTime(7),
		AdministrativeSex:     r.code(8, tableAdministrativeSex),
		Race:                  repeated(r, 10, parseCWE),
		Address:               repeated(r, 11, parseXAD),
		PhoneHome:             repeated(r, 13, parseXTN),
		PhoneBusiness:         repeated(r, 14, parseXTN),
		PrimaryLanguage:       r.cwe(15),
		MaritalStatus:         r.cwe(16),
		Religion:              r.cwe(17),
		AccountNumber:         r.cx(18),
		SSN:                   r.str(19),
		EthnicGroup:           repeated(r, 22, parseCWE),
		BirthPlace:            r.str(23),
		MultipleBirth:         r.str(24),
		BirthOrder:            r.integer(25),
		DeathDateTime:         r.dateTime(29),
		DeathIndicator:        r.str(30),
	}
}

func mapPatientVisit(r *fieldReader) Segment {
	return &PatientVisit{
		segmentBase:          r.base(),
		SetID:                r.integer(1),
		PatientClass:         r.code(2, tablePatientClass),
		AssignedLocation:     r.pl(3),
		AdmissionType:        r.str(4),
		PreadmitNumber:       r.cx(5),
		PriorLocation:        r.pl(6),
		AttendingDoctor:      repeated(r, 7, parseXCN),
		ReferringDoctor:      repeated(r, 8, parseXCN),
		ConsultingDoctor:     repeated(r, 9, parseXCN),
		HospitalService:      r.str(10),
		AdmitSource:          r.str(14),
		VIPIndicator:         r.str(16),
		AdmittingDoctor:      repeated(r, 17, parseXCN),
		PatientType:          r.str(18),
		VisitNumber:          r.cx(19),
		DischargeDisposition: r.str(36),
		ServicingFacility:    r.str(39),
		AccountStatus:        r.str(41),
		AdmitDateTime:        r.dateTime(44),
		DischargeDateTime:    r.dateTime(45),
		VisitIndicator:       r.str(51),
	}
}

func mapPatientVisitAdditional(r *fieldReader) Segment {
	return &PatientVisitAdditional{
		segmentBase:               r.base(),
		PriorPendingLocation:      r.pl(1),
		AccommodationCode:         r.cwe(2),
		AdmitReason:               r.cwe(3),
		TransferReason:            r.cwe(4),
		ExpectedAdmitDateTime:     r.dateTime(8),
		ExpectedDischargeDateTime: r.dateTime(9),
		EstimatedLengthOfStay:     r.integer(10),
		ActualLengthOfStay:        r.integer(11),
		VisitDescription:          r.str(12),
		VisitPriorityCode:         r.str(25),
	}
}

func mapDiagnosis(r *fieldReader) Segment {
	return &Diagnosis{
		segmentBase:         r.base(),
		SetID:               r.integer(1),
		CodingMethod:        r.str(2),
		DiagnosisCode:       r.cwe(3),
		Description:         r.str(4),
		DiagnosisDateTime:   r.dateTime(5),
		DiagnosisType:       r.str(6),
		Priority:            r.integer(15),
		DiagnosingClinician: repeated(r, 16, parseXCN),
	}
}

func mapAllergy(r *fieldReader) Segment {
	return &Allergy{
		segmentBase:        r.base(),
		SetID:              r.integer(1),
		AllergenType:       r.cwe(2),
		AllergenCode:       r.cwe(3),
		Severity:           r.cwe(4),
		Reactions:          r.strs(5),
		IdentificationDate: r.dateTime(6),
	}
}

func mapInsurance(r *fieldReader) Segment {
	return &Insurance{
		segmentBase:           r.base(),
		SetID:                 r.integer(1),
		HealthPlanID:          r.cwe(2),
		CompanyIDs:            repeated(r, 3, parseCX),
		CompanyName:           repeated(r, 4, parseXON),
		CompanyAddress:        repeated(r, 5, parseXAD),
		CompanyContact:        repeated(r, 6, parseXPN),
		CompanyPhone:          repeated(r, 7, parseXTN),
		GroupNumber:           r.str(8),
		GroupName:             repeated(r, 9, parseXON),
		PlanEffectiveDate:     r.dateTime(12),
		PlanExpirationDate:    r.dateTime(13),
		PlanType:              r.str(15),
		NameOfInsured:         repeated(r, 16, parseXPN),
		RelationshipToPatient: r.cwe(17),
		InsuredDateOfBirth:    r.dateTime(18),
		InsuredAddress:        repeated(r, 19, parseXAD),
		PolicyNumber:          r.str(36),
	}
}
