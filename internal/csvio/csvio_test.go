package csvio_test

import (
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func ptr(s string) *string { return &s }

func sampleTicket(status model.TicketStatus) model.Ticket {
	return model.Ticket{
		ID:          uuid.MustParse("6f1c1c8e-8d0b-4f7e-9a57-3e3c2b1f0a01"),
		Name:        `Siti "Ucok" Aminah`,
		Email:       "siti@kampus.ac.id",
		Phone:       "081234567890",
		StudentID:   "2021001234",
		Subject:     "Wifi, lab 3 putus",
		Category:    model.CategoryWifi,
		Description: `Sinyal hilang tiap jam 10, kata teknisi "sedang dicek".`,
		Status:      status,
		AdminNotes:  ptr("Sudah diteruskan, menunggu vendor"),
		CreatedAt:   time.Date(2025, 3, 1, 9, 30, 15, 0, jakarta),
		UpdatedAt:   time.Date(2025, 3, 2, 14, 5, 0, 0, jakarta),
	}
}

func Test_Escape_Quotes_And_Doubles_Interior_Quotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"plain"`, csvio.Escape("plain"))
	assert.Equal(t, `"say ""hi"""`, csvio.Escape(`say "hi"`))
	assert.Equal(t, `""`, csvio.Escape(""))
}

func Test_Unescape_Reverses_Escape_For_Any_String(t *testing.T) {
	t.Parallel()

	roundTrip := func(s string) bool {
		return csvio.Unescape(csvio.Escape(s)) == s
	}
	require.NoError(t, quick.Check(roundTrip, nil))

	for _, s := range []string{`"`, `""`, `a"b`, `,`, "line\nbreak", `"quoted"`} {
		assert.Equal(t, s, csvio.Unescape(csvio.Escape(s)))
	}
}

func Test_Parse_Decodes_Escaped_Fields_For_Any_String(t *testing.T) {
	t.Parallel()

	property := func(a, b string) bool {
		rows := csvio.Parse(csvio.Escape(a) + "," + csvio.Escape(b))
		return len(rows) == 1 && cmp.Equal(rows[0], []string{a, b})
	}
	require.NoError(t, quick.Check(property, nil))
}

func Test_Parse_Handles_Quoted_Commas_And_Blank_Lines(t *testing.T) {
	t.Parallel()

	text := "a, b ,\"c, d\"\n\n   \n\"x \"\"y\"\"\",,z\r\n"
	got := csvio.Parse(text)

	want := [][]string{
		{"a", "b", "c, d"},
		{`x "y"`, "", "z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func Test_Parse_Keeps_Newlines_Inside_Quotes(t *testing.T) {
	t.Parallel()

	got := csvio.Parse("\"one\ntwo\",3\n4,5")

	assert.Equal(t, [][]string{{"one\ntwo", "3"}, {"4", "5"}}, got)
}

func Test_Parse_Preserves_Whitespace_Inside_Quotes(t *testing.T) {
	t.Parallel()

	got := csvio.Parse(`  "  padded  "  , bare `)

	assert.Equal(t, [][]string{{"  padded  ", "bare"}}, got)
}

func Test_Encode_Exports_Header_And_One_Line_Per_Ticket(t *testing.T) {
	t.Parallel()

	tickets := []model.Ticket{
		sampleTicket(model.TicketStatusSubmitted),
		sampleTicket(model.TicketStatusInProgress),
		sampleTicket(model.TicketStatusDone),
	}

	out := csvio.NewEncoder(csvio.FormatLabeled, jakarta).EncodeString(tickets)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "ID,Nama,Email,NIM,Kategori,Subjek,Deskripsi,Status,Catatan Admin,Tanggal Dibuat,Tanggal Diperbarui", lines[0])

	rows := csvio.Parse(out)
	require.Len(t, rows, 4)
	for i, status := range []string{"DIAJUKAN", "DIPROSES", "SELESAI"} {
		assert.Equal(t, status, rows[i+1][7], "status column of row %d", i+1)
	}
}

func Test_Encode_Quotes_Text_Fields_Only(t *testing.T) {
	t.Parallel()

	tk := sampleTicket(model.TicketStatusApproved)
	tk.AdminNotes = nil

	row := csvio.NewEncoder(csvio.FormatColumns, jakarta).Row(&tk)

	assert.Equal(t,
		`6f1c1c8e-8d0b-4f7e-9a57-3e3c2b1f0a01,"Siti ""Ucok"" Aminah",siti@kampus.ac.id,081234567890,Wifi,`+
			`"Wifi, lab 3 putus","Sinyal hilang tiap jam 10, kata teknisi ""sedang dicek"".",DISETUJUI,,`+
			`2025-03-01 09:30:15,2025-03-02 14:05:00`,
		row)
}

func Test_Encode_Quotes_Contact_Fields_Only_When_Needed(t *testing.T) {
	t.Parallel()

	tk := sampleTicket(model.TicketStatusApproved)
	tk.Email = "a,b@kampus.ac.id"
	enc := csvio.NewEncoder(csvio.FormatLabeled, jakarta)

	assert.Contains(t, enc.Row(&tk), `,"a,b@kampus.ac.id",2021001234,`)

	tk.Email = "siti@kampus.ac.id"
	assert.Contains(t, enc.Row(&tk), `,siti@kampus.ac.id,2021001234,`)
}

func Test_Decode_Round_Trips_Encoded_Tickets(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		format csvio.Format
		mutate func(*model.Ticket)
	}{
		{"Labeled", csvio.FormatLabeled, func(tk *model.Ticket) { tk.Phone = "" }},
		{"Columns", csvio.FormatColumns, func(tk *model.Ticket) { tk.StudentID = "" }},
		{"ColumnsWithoutNotes", csvio.FormatColumns, func(tk *model.Ticket) { tk.StudentID = ""; tk.AdminNotes = nil }},
		{"LabeledSeparatorsInContactFields", csvio.FormatLabeled, func(tk *model.Ticket) {
			tk.Phone = ""
			tk.Email = `a,b"c@kampus.ac.id`
			tk.StudentID = ` 2021,"01" `
		}},
		{"ColumnsSeparatorsInContactFields", csvio.FormatColumns, func(tk *model.Ticket) {
			tk.StudentID = ""
			tk.Email = "a,b@kampus.ac.id"
			tk.Phone = `0812"345,678`
		}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			want := sampleTicket(model.TicketStatusDone)
			testCase.mutate(&want)

			text := csvio.NewEncoder(testCase.format, jakarta).EncodeString([]model.Ticket{want})
			doc, err := csvio.Decode(text, testCase.format)
			require.NoError(t, err)
			require.Len(t, doc.Records, 1)

			got, err := doc.Records[0].Ticket(jakarta)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Decode_Reports_Every_Missing_Header(t *testing.T) {
	t.Parallel()

	_, err := csvio.Decode("Nama,Email,NIM,Kategori,Subjek,Status\n\"a\",b@c.de,1,Wifi,\"s\",DIAJUKAN", csvio.FormatLabeled)

	var missing *csvio.MissingHeadersError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Deskripsi"}, missing.Missing)
	assert.Equal(t, "Missing: Deskripsi", err.Error())
}

func Test_Decode_Rejects_Other_Format_Headers(t *testing.T) {
	t.Parallel()

	header := csvio.FormatLabeled.HeaderLine()
	_, err := csvio.Decode(header, csvio.FormatColumns)

	var missing *csvio.MissingHeadersError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"name", "email", "phone", "category", "subject", "description", "status"}, missing.Missing)
}

func Test_Decode_Matches_Headers_In_Any_Order(t *testing.T) {
	t.Parallel()

	text := "status,extra,subject,description,category,phone,email,name\n" +
		`SELESAI,ignored,"Printer",,Hardware,0811111111,a@b.co,"Andi"`

	doc, err := csvio.Decode(text, csvio.FormatColumns)
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)
	assert.False(t, doc.Header.Has(csvio.ColID))

	in := doc.Records[0].CreateTicket()
	assert.Equal(t, model.CreateTicket{
		Name:     "Andi",
		Email:    "a@b.co",
		Phone:    "0811111111",
		Subject:  "Printer",
		Category: model.CategoryHardware,
		Status:   model.TicketStatusDone,
	}, in)
}

func Test_Record_CreateTicket_Applies_Defaults(t *testing.T) {
	t.Parallel()

	text := csvio.FormatLabeled.HeaderLine() + "\n" + `,"Andi",a@b.co,123,,"Subjek",,,,,`

	doc, err := csvio.Decode(text, csvio.FormatLabeled)
	require.NoError(t, err)

	in := doc.Records[0].CreateTicket()
	assert.Equal(t, model.CategoryOther, in.Category)
	assert.Equal(t, model.TicketStatusSubmitted, in.Status)
	assert.Nil(t, in.AdminNotes)
	assert.Empty(t, doc.Records[0].Missing())
}

func Test_Record_Missing_Lists_Empty_Row_Required_Fields(t *testing.T) {
	t.Parallel()

	text := csvio.FormatLabeled.HeaderLine() + "\n" + `,"",a@b.co,123,Wifi,"",d,DIAJUKAN`

	doc, err := csvio.Decode(text, csvio.FormatLabeled)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nama", "Subjek"}, doc.Records[0].Missing())
}

func Test_Decode_Returns_ErrEmpty_For_Blank_Input(t *testing.T) {
	t.Parallel()

	_, err := csvio.Decode("\n\n", csvio.FormatLabeled)
	require.ErrorIs(t, err, csvio.ErrEmpty)
}

func Test_FileName_Uses_Timestamp_Pattern(t *testing.T) {
	t.Parallel()

	name := csvio.FileName(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "tickets_export_20250102_030405.csv", name)
}

func Test_FormatByName(t *testing.T) {
	t.Parallel()

	f, err := csvio.FormatByName("")
	require.NoError(t, err)
	assert.Equal(t, "labeled", f.Name)

	f, err = csvio.FormatByName("COLUMNS")
	require.NoError(t, err)
	assert.Equal(t, "columns", f.Name)

	_, err = csvio.FormatByName("xlsx")
	require.Error(t, err)
}
