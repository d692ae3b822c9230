package mapper

import (
	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/types"
)

// RefKind marks a target field as a foreign reference needing existence
// checks during validation.
type RefKind string

const (
	RefNone           RefKind = ""
	RefOrgUnit        RefKind = "org_unit"
	RefService        RefKind = "service"
	RefCell           RefKind = "cell"
	RefFund           RefKind = "fund"
	RefBatch          RefKind = "batch"
	RefPartnershipArm RefKind = "partnership_arm"
	RefPerson         RefKind = "person"
)

// TargetField declares one importable field of an entity type: the header
// variations it auto-maps from, whether it is required, and how its values
// coerce and validate.
type TargetField struct {
	Name       string
	Variations []string
	Required   bool
	Coercion   coerce.Type
	EnumKind   coerce.EnumKind
	Ref        RefKind
	// Unique fields are checked for duplicates within the tenant.
	Unique bool
}

// FieldsFor returns the target field registry for an entity type in
// declaration order. Unknown entity types return nil. The slice is shared;
// callers must not mutate it.
func FieldsFor(entity types.EntityType) []TargetField {
	switch entity {
	case types.EntityPeople:
		return peopleFields
	case types.EntityMemberships:
		return membershipFields
	case types.EntityFirstTimers:
		return firstTimerFields
	case types.EntityServices:
		return serviceFields
	case types.EntityAttendance:
		return attendanceFields
	case types.EntityCells:
		return cellFields
	case types.EntityCellReports:
		return cellReportFields
	case types.EntityFinanceEntries:
		return financeEntryFields
	}
	return nil
}

// FieldFor looks up a single declared field by name.
func FieldFor(entity types.EntityType, name string) (TargetField, bool) {
	for _, f := range FieldsFor(entity) {
		if f.Name == name {
			return f, true
		}
	}
	return TargetField{}, false
}

var peopleFields = []TargetField{
	{
		Name:       "first_name",
		Variations: []string{"first_name", "firstname", "first name", "fname", "given_name", "given name", "forename", "name"},
		Required:   true,
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "last_name",
		Variations: []string{"last_name", "lastname", "last name", "lname", "surname", "family_name", "family name"},
		Required:   true,
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "email",
		Variations: []string{"email", "e-mail", "email_address", "email address", "mail"},
		Coercion:   coerce.TypeEmail,
		Unique:     true,
	},
	{
		Name:       "phone",
		Variations: []string{"phone", "telephone", "phone_number", "phone number", "mobile", "cell", "contact"},
		Coercion:   coerce.TypePhone,
	},
	{
		Name:       "gender",
		Variations: []string{"gender", "sex"},
		Required:   true,
		Coercion:   coerce.TypeEnum,
		EnumKind:   coerce.EnumGender,
	},
	{
		Name:       "dob",
		Variations: []string{"dob", "date_of_birth", "date of birth", "birth_date", "birth date", "birthday"},
		Coercion:   coerce.TypeDate,
	},
	{
		Name:       "member_code",
		Variations: []string{"member_code", "member code", "member_id", "member id", "id", "code"},
		Coercion:   coerce.TypeString,
		Unique:     true,
	},
	{
		Name:       "title",
		Variations: []string{"title", "prefix", "salutation"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "alias",
		Variations: []string{"alias", "nickname", "preferred_name", "preferred name"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "address_line1",
		Variations: []string{"address_line1", "address line1", "address", "street", "street_address", "street address"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "address_line2",
		Variations: []string{"address_line2", "address line2", "address2", "apartment", "unit"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "town",
		Variations: []string{"town", "city"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "county",
		Variations: []string{"county", "state", "province"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "eircode",
		Variations: []string{"eircode", "postcode", "postal_code", "postal code", "zip"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "marital_status",
		Variations: []string{"marital_status", "marital status", "marital", "status"},
		Coercion:   coerce.TypeEnum,
		EnumKind:   coerce.EnumMaritalStatus,
	},
}

var membershipFields = []TargetField{
	{
		Name:       "status",
		Variations: []string{"status", "membership_status", "membership status"},
		Coercion:   coerce.TypeEnum,
		EnumKind:   coerce.EnumMembershipStatus,
	},
	{
		Name:       "join_date",
		Variations: []string{"join_date", "join date", "joined", "member_since", "member since"},
		Coercion:   coerce.TypeDate,
	},
	{
		Name:       "foundation_completed",
		Variations: []string{"foundation_completed", "foundation completed", "foundation"},
		Coercion:   coerce.TypeBoolean,
	},
	{
		Name:       "baptism_date",
		Variations: []string{"baptism_date", "baptism date", "baptized", "baptism"},
		Coercion:   coerce.TypeDate,
	},
}

var firstTimerFields = []TargetField{
	{
		Name:       "service_id",
		Variations: []string{"service_id", "service id", "service"},
		Required:   true,
		Coercion:   coerce.TypeString,
		Ref:        RefService,
	},
	{
		Name:       "source",
		Variations: []string{"source", "inviter", "invited_by", "invited by"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "status",
		Variations: []string{"status", "first_timer_status", "first timer status"},
		Coercion:   coerce.TypeEnum,
		EnumKind:   coerce.EnumFirstTimerStatus,
	},
	{
		Name:       "notes",
		Variations: []string{"notes", "note", "comments", "comment"},
		Coercion:   coerce.TypeString,
	},
}

var serviceFields = []TargetField{
	{
		Name:       "name",
		Variations: []string{"name", "service_name", "service name"},
		Required:   true,
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "service_date",
		Variations: []string{"service_date", "service date", "date", "event_date", "event date"},
		Required:   true,
		Coercion:   coerce.TypeDate,
	},
	{
		Name:       "service_time",
		Variations: []string{"service_time", "service time", "time", "start_time", "start time"},
		Coercion:   coerce.TypeTime,
	},
}

var attendanceFields = []TargetField{
	{
		Name:       "service_id",
		Variations: []string{"service_id", "service id", "service"},
		Required:   true,
		Coercion:   coerce.TypeString,
		Ref:        RefService,
	},
	{
		Name:       "attendance_count",
		Variations: []string{"attendance_count", "attendance count", "attendance", "count", "total"},
		Coercion:   coerce.TypeInteger,
	},
	{
		Name:       "notes",
		Variations: []string{"notes", "note", "comments", "comment"},
		Coercion:   coerce.TypeString,
	},
}

var cellFields = []TargetField{
	{
		Name:       "name",
		Variations: []string{"name", "cell_name", "cell name", "group_name", "group name"},
		Required:   true,
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "leader_id",
		Variations: []string{"leader_id", "leader id", "leader", "cell_leader", "cell leader"},
		Coercion:   coerce.TypeString,
		Ref:        RefPerson,
	},
	{
		Name:       "assistant_leader_id",
		Variations: []string{"assistant_leader_id", "assistant leader id", "assistant_leader", "assistant leader", "co_leader", "co leader"},
		Coercion:   coerce.TypeString,
		Ref:        RefPerson,
	},
	{
		Name:       "venue",
		Variations: []string{"venue", "location", "address", "meeting_venue"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "meeting_day",
		Variations: []string{"meeting_day", "meeting day", "day", "meets_on", "meets on"},
		Coercion:   coerce.TypeEnum,
		EnumKind:   coerce.EnumMeetingDay,
	},
	{
		Name:       "meeting_time",
		Variations: []string{"meeting_time", "meeting time", "time", "start_time", "start time"},
		Coercion:   coerce.TypeTime,
	},
	{
		Name:       "status",
		Variations: []string{"status", "cell_status", "cell status"},
		Coercion:   coerce.TypeString,
	},
}

var cellReportFields = []TargetField{
	{
		Name:       "cell_id",
		Variations: []string{"cell_id", "cell id", "cell"},
		Required:   true,
		Coercion:   coerce.TypeString,
		Ref:        RefCell,
	},
	{
		Name:       "report_date",
		Variations: []string{"report_date", "report date", "date", "meeting_date", "meeting date"},
		Required:   true,
		Coercion:   coerce.TypeDate,
	},
	{
		Name:       "report_time",
		Variations: []string{"report_time", "report time", "time", "meeting_time", "meeting time"},
		Coercion:   coerce.TypeTime,
	},
	{
		Name:       "attendance",
		Variations: []string{"attendance", "attendance_count", "attendance count", "count"},
		Coercion:   coerce.TypeInteger,
	},
	{
		Name:       "first_timers",
		Variations: []string{"first_timers", "first timers", "first_timer_count", "first timer count"},
		Coercion:   coerce.TypeInteger,
	},
	{
		Name:       "new_converts",
		Variations: []string{"new_converts", "new converts", "converts", "conversions"},
		Coercion:   coerce.TypeInteger,
	},
	{
		Name:       "testimonies",
		Variations: []string{"testimonies", "testimony", "testimonials"},
		Coercion:   coerce.TypeInteger,
	},
	{
		Name:       "offerings_total",
		Variations: []string{"offerings_total", "offerings total", "offerings", "offering", "total_offering", "total offering"},
		Coercion:   coerce.TypeDecimal,
	},
	{
		Name:       "meeting_type",
		Variations: []string{"meeting_type", "meeting type", "type", "meeting_kind"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "status",
		Variations: []string{"status", "report_status", "report status"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "notes",
		Variations: []string{"notes", "note", "comments", "comment"},
		Coercion:   coerce.TypeString,
	},
}

var financeEntryFields = []TargetField{
	{
		Name:       "fund_id",
		Variations: []string{"fund_id", "fund id", "fund"},
		Required:   true,
		Coercion:   coerce.TypeString,
		Ref:        RefFund,
	},
	{
		Name:       "amount",
		Variations: []string{"amount", "value", "total", "sum"},
		Required:   true,
		Coercion:   coerce.TypeDecimal,
	},
	{
		Name:       "transaction_date",
		Variations: []string{"transaction_date", "transaction date", "date", "entry_date", "entry date"},
		Required:   true,
		Coercion:   coerce.TypeDate,
	},
	{
		Name:       "org_unit_id",
		Variations: []string{"org_unit_id", "org unit id", "org_unit", "org unit", "organization"},
		Required:   true,
		Coercion:   coerce.TypeString,
		Ref:        RefOrgUnit,
	},
	{
		Name:       "batch_id",
		Variations: []string{"batch_id", "batch id", "batch"},
		Coercion:   coerce.TypeString,
		Ref:        RefBatch,
	},
	{
		Name:       "service_id",
		Variations: []string{"service_id", "service id", "service"},
		Coercion:   coerce.TypeString,
		Ref:        RefService,
	},
	{
		Name:       "partnership_arm_id",
		Variations: []string{"partnership_arm_id", "partnership arm id", "partnership_arm", "partnership arm", "arm"},
		Coercion:   coerce.TypeString,
		Ref:        RefPartnershipArm,
	},
	{
		Name:       "currency",
		Variations: []string{"currency", "curr"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "method",
		Variations: []string{"method", "payment_method", "payment method", "payment_type", "payment type"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "person_id",
		Variations: []string{"person_id", "person id", "person", "giver_id", "giver id", "giver"},
		Coercion:   coerce.TypeString,
		Ref:        RefPerson,
	},
	{
		Name:       "cell_id",
		Variations: []string{"cell_id", "cell id", "cell"},
		Coercion:   coerce.TypeString,
		Ref:        RefCell,
	},
	{
		Name:       "external_giver_name",
		Variations: []string{"external_giver_name", "external giver name", "external_giver", "external giver", "giver_name", "giver name"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "reference",
		Variations: []string{"reference", "ref", "transaction_ref", "transaction ref"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "comment",
		Variations: []string{"comment", "comments", "notes", "note"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "verified_status",
		Variations: []string{"verified_status", "verified status", "status", "verification_status"},
		Coercion:   coerce.TypeString,
	},
	{
		Name:       "source_type",
		Variations: []string{"source_type", "source type", "source", "entry_source"},
		Coercion:   coerce.TypeString,
	},
}
