package membackend

import "testing"

func TestNewSchemaAssignsSequentialIDs(t *testing.T) {
	sch := NewSchema(
		ColumnFamilyDef{Name: "email", HasIndex: true},
		ColumnFamilyDef{Name: "status", HasIndex: true},
		ColumnFamilyDef{Name: "nickname", HasQualifierIndex: true},
	)
	cfs := sch.ColumnFamilies()
	if len(cfs) != 3 {
		t.Fatalf("got %d families, want 3", len(cfs))
	}
	if cfs[0].ID() != 1 || cfs[0].Name() != "email" || !cfs[0].HasIndex() {
		t.Errorf("families[0] = %+v, want email id=1 hasIndex=true", cfs[0])
	}
	if cfs[2].ID() != 3 || !cfs[2].HasQualifierIndex() {
		t.Errorf("families[2] = %+v, want nickname id=3 hasQualifierIndex=true", cfs[2])
	}
}

func TestSchemaFromXMLParsesFamilyNamesSorted(t *testing.T) {
	xmlFragment := `<Schema><AccessGroup name="default">` +
		`<ColumnFamily><Name>status</Name><Counter>false</Counter><MaxVersions>1</MaxVersions><deleted>false</deleted></ColumnFamily>` +
		`<ColumnFamily><Name>email</Name><Counter>false</Counter><MaxVersions>1</MaxVersions><deleted>false</deleted></ColumnFamily>` +
		`</AccessGroup></Schema>`

	sch, err := schemaFromXML(xmlFragment)
	if err != nil {
		t.Fatalf("schemaFromXML: %v", err)
	}
	cfs := sch.ColumnFamilies()
	if len(cfs) != 2 || cfs[0].Name() != "email" || cfs[1].Name() != "status" {
		t.Fatalf("got %+v, want [email status] sorted regardless of XML order", cfs)
	}
}

func TestSchemaFromXMLEmptyAccessGroup(t *testing.T) {
	sch, err := schemaFromXML(`<Schema><AccessGroup name="default"></AccessGroup></Schema>`)
	if err != nil {
		t.Fatalf("schemaFromXML: %v", err)
	}
	if len(sch.ColumnFamilies()) != 0 {
		t.Fatalf("expected zero families from an empty access group")
	}
}

func TestSchemaFromXMLMalformedReturnsError(t *testing.T) {
	if _, err := schemaFromXML("not xml at all <<<"); err == nil {
		t.Fatal("expected an error for malformed XML")
	}
}
