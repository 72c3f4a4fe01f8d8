package domain

import "testing"

func TestResponsePatchMergesFields(t *testing.T) {
	c := Case{Response: CaseResponse{Type: ResponseTypeCorreo, Summary: "resumen", CaseText: "relato"}}
	text := "respuesta"
	CasePatch{Response: &CaseResponsePatch{ResponseText: &text}}.Apply(&c)

	want := CaseResponse{Type: ResponseTypeCorreo, Summary: "resumen", CaseText: "relato", ResponseText: "respuesta"}
	if c.Response != want {
		t.Fatalf("response = %+v", c.Response)
	}

	blank := ""
	CasePatch{Response: &CaseResponsePatch{Summary: &blank}}.Apply(&c)
	if c.Response.Summary != "" || c.Response.Type != ResponseTypeCorreo {
		t.Fatalf("response = %+v", c.Response)
	}
}
