package hl7v2

func mapCommonOrder(r *fieldReader) Segment {
	return &CommonOrder{
		segmentBase:          r.base(),
		OrderControl:         r.code(1, tableOrderControl),
		PlacerOrderNumber:    r.ei(2),
		FillerOrderNumber:    r.ei(3),
		PlacerGroupNumber:    r.ei(4),
		OrderStatus:          r.str(5),
		ResponseFlag:         r.str(6),
		TransactionDateTime:  r.dateTime(9),
		EnteredBy:            repeated(r, 10, parseXCN),
		VerifiedBy:           repeated(r, 11, parseXCN),
		OrderingProvider:     repeated(r, 12, parseXCN),
		EntererLocation:      r.pl(13),
		CallBackPhone:        repeated(r, 14, parseXTN),
		EffectiveDateTime:    r.dateTime(15),
		OrderControlReason:   r.cwe(16),
		EnteringOrganization: r.cwe(17),
	}
}

func mapObservationRequest(r *fieldReader) Segment {
	return &ObservationRequest{
		segmentBase:          r.base(),
		SetID:                r.integer(1),
		PlacerOrderNumber:    r.ei(2),
		FillerOrderNumber:    r.ei(3),
		UniversalServiceID:   r.cwe(4),
		Priority:             r.str(5),
		RequestedDateTime:    r.dateTime(6),
		ObservationDateTime:  r.dateTime(7),
		ObservationEndTime:   r.dateTime(8),
		SpecimenActionCode:   r.str(11),
		RelevantClinicalInfo: r.str(13),
		OrderingProvider:     repeated(r, 16, parseXCN),
		ResultsReportedAt:    r.dateTime(22),
		DiagnosticServiceID:  r.str(24),
		ResultStatus:         r.code(25, tableResultStatus),
		ReasonForStudy:       repeated(r, 31, parseCWE),
	}
}

func mapObservationResult(r *fieldReader) Segment {
	obx := &ObservationResult{
		segmentBase:           r.base(),
		SetID:                 r.integer(1),
		ValueType:             r.str(2),
		ObservationIdentifier: r.cwe(3),
		ObservationSubID:      r.str(4),
		ObservationValue:      r.field(5).Repetitions(),
		Units:                 r.cwe(6),
		ReferenceRange:        r.str(7),
		AbnormalFlags:         r.strs(8),
		ResultStatus:          r.code(11, tableObservationStatus),
		ObservationDateTime:   r.dateTime(14),
		ProducerID:            r.cwe(15),
		ResponsibleObserver:   repeated(r, 16, parseXCN),
		ObservationMethod:     repeated(r, 17, parseCWE),
		AnalysisDateTime:      r.dateTime(19),
	}

	switch obx.ValueType {
	case "NM":
		obx.NumericValue = r.decimal(5, r.str(5))
	case "CE", "CWE", "CNE":
		if v := r.first(5); !v.Empty() {
			coded := parseCWE(v)
			obx.CodedValue = &coded
		}
	}
	return obx
}

func mapNote(r *fieldReader) Segment {
	return &Note{
		segmentBase:     r.base(),
		SetID:           r.integer(1),
		SourceOfComment: r.str(2),
		Comment:         r.strs(3),
		CommentType:     r.cwe(4),
	}
}
