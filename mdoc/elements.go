package mdoc

import "fmt"

// ISO_IEC_18013-5_2021(en).pdf

const (
	IsoMDL  DocType = "org.iso.18013.5.1.mDL"
	EudiPid DocType = "eu.europa.ec.eudi.pid.1"
)

const (
	ISO1801351 NameSpace = "org.iso.18013.5.1"
	EUDIPID1   NameSpace = "eu.europa.ec.eudi.pid.1"
)

type Element struct {
	Namespace NameSpace
	Name      ElementIdentifier
}

var (
	EUFamilyName = Element{
		Namespace: EUDIPID1,
		Name:      "family_name",
	}

	EUGivenName = Element{
		Namespace: EUDIPID1,
		Name:      "given_name",
	}

	EUBirthDate = Element{
		Namespace: EUDIPID1,
		Name:      "birth_date",
	}

	FamilyName = Element{
		Namespace: ISO1801351,
		Name:      "family_name",
	}

	GivenName = Element{
		Namespace: ISO1801351,
		Name:      "given_name",
	}

	BirthDate = Element{
		Namespace: ISO1801351,
		Name:      "birth_date",
	}

	IssueDate = Element{
		Namespace: ISO1801351,
		Name:      "issue_date",
	}

	ExpiryDate = Element{
		Namespace: ISO1801351,
		Name:      "expiry_date",
	}

	IssuingCountry = Element{
		Namespace: ISO1801351,
		Name:      "issuing_country",
	}

	IssuingAuthority = Element{
		Namespace: ISO1801351,
		Name:      "issuing_authority",
	}

	DocumentNumber = Element{
		Namespace: ISO1801351,
		Name:      "document_number",
	}

	Portrait = Element{
		Namespace: ISO1801351,
		Name:      "portrait",
	}

	DrivingPrivileges = Element{
		Namespace: ISO1801351,
		Name:      "driving_privileges",
	}

	Sex = Element{
		Namespace: ISO1801351,
		Name:      "sex",
	}

	ResidentAddress = Element{
		Namespace: ISO1801351,
		Name:      "resident_address",
	}

	AgeInYears = Element{
		Namespace: ISO1801351,
		Name:      "age_in_years",
	}

	AgeBirthYear = Element{
		Namespace: ISO1801351,
		Name:      "age_birth_year",
	}

	Nationality = Element{
		Namespace: ISO1801351,
		Name:      "nationality",
	}

	ResidentCity = Element{
		Namespace: ISO1801351,
		Name:      "resident_city",
	}

	ResidentState = Element{
		Namespace: ISO1801351,
		Name:      "resident_state",
	}

	ResidentPostalCode = Element{
		Namespace: ISO1801351,
		Name:      "resident_postal_code",
	}

	ResidentCountry = Element{
		Namespace: ISO1801351,
		Name:      "resident_country",
	}
)

func AgeOver(age int) (Element, error) {
	if age < 0 || age > 99 {
		return Element{}, fmt.Errorf("unsupported range of age: %v", age)
	}
	return Element{
		Namespace: ISO1801351,
		Name:      ElementIdentifier(fmt.Sprintf("age_over_%02d", age)),
	}, nil
}

// DataElement is an element together with its value, used to build documents.
type DataElement struct {
	Element
	Value interface{}
}

func (e Element) With(value interface{}) DataElement {
	return DataElement{Element: e, Value: value}
}
