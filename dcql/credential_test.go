package dcql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func claimQuery(t *testing.T, path string, values string) *ClaimQuery {
	t.Helper()
	c := &ClaimQuery{}
	p, err := fastjson.Parse(path)
	require.NoError(t, err)
	c.Path = p.GetArray()
	if values != "" {
		v, err := fastjson.Parse(values)
		require.NoError(t, err)
		c.Values = v.GetArray()
	}
	return c
}

func TestFindMatchingClaimValue_Mdoc(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		values    string
		want      ClaimValue
		wantFound bool
	}{
		{
			name:      "element",
			path:      `["org.iso.18013.5.1","given_name"]`,
			want:      MustMdocClaimValue("Erika"),
			wantFound: true,
		},
		{
			name:      "element with matching value",
			path:      `["org.iso.18013.5.1","given_name"]`,
			values:    `["Erika"]`,
			want:      MustMdocClaimValue("Erika"),
			wantFound: true,
		},
		{
			name:   "element with other value",
			path:   `["org.iso.18013.5.1","given_name"]`,
			values: `["Max"]`,
		},
		{
			name: "unknown element",
			path: `["org.iso.18013.5.1","portrait"]`,
		},
		{
			name: "unknown namespace",
			path: `["org.iso.18013.5.1.aamva","given_name"]`,
		},
		{
			name: "path too short",
			path: `["org.iso.18013.5.1"]`,
		},
		{
			name: "path too long",
			path: `["org.iso.18013.5.1","given_name","x"]`,
		},
	}

	cred := mdlErika(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := cred.FindMatchingClaimValue(claimQuery(t, tt.path, tt.values))
			require.NoError(t, err)
			require.Equal(t, tt.wantFound, found)
			if !tt.wantFound {
				require.Nil(t, got)
				return
			}
			require.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestFindMatchingClaimValue_JSON(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		want      string
		wantFound bool
	}{
		{name: "top level", path: `["given_name"]`, want: `"Erika"`, wantFound: true},
		{name: "missing top level", path: `["does-not-exist"]`},
		{name: "nested", path: `["address","country"]`, want: `"US"`, wantFound: true},
		{name: "nested state", path: `["address","state"]`, want: `"CA"`, wantFound: true},
		{name: "nested number", path: `["address","house_number"]`, want: `123`, wantFound: true},
		{name: "missing nested", path: `["address","does-not-exist"]`},
		{
			name:      "entire object",
			path:      `["address"]`,
			want:      `{"country":"US","state":"CA","postal_code":90210,"street_address":"Sample Street 123","house_number":123}`,
			wantFound: true,
		},
		{name: "index", path: `["nationalities",1]`, want: `"American"`, wantFound: true},
		{name: "index out of range", path: `["nationalities",2]`},
		{name: "all elements", path: `["nationalities",null]`, want: `["German","American"]`, wantFound: true},
		{
			name:      "projection",
			path:      `["degrees",null,"type"]`,
			want:      `["Bachelor of Science","Master of Science"]`,
			wantFound: true,
		},
		{
			name:      "projection without null",
			path:      `["degrees","university"]`,
			want:      `["University of Betelgeuse","University of Betelgeuse"]`,
			wantFound: true,
		},
		{name: "projection of missing key", path: `["degrees",null,"year"]`},
	}

	cred := pidErikaDetailed(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := cred.FindMatchingClaimValue(claimQuery(t, tt.path, ""))
			require.NoError(t, err)
			require.Equal(t, tt.wantFound, found)
			if !tt.wantFound {
				return
			}
			want := MustJSONClaimValue(tt.want)
			require.True(t, want.Equal(got), "got %s, want %s", got, want)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFindMatchingClaimValue_InvalidPath(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: `[]`},
		{name: "leading index", path: `[0]`},
		{name: "leading null", path: `[null]`},
		{name: "index into object", path: `["address",0]`},
		{name: "null on object", path: `["address",null]`},
		{name: "key on string", path: `["given_name","x"]`},
		{name: "negative index", path: `["nationalities",-1]`},
		{name: "fractional index", path: `["nationalities",1.5]`},
		{name: "boolean component", path: `["address",true]`},
		{name: "projection over strings", path: `["nationalities",null,"x"]`},
	}

	cred := pidErikaDetailed(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := cred.FindMatchingClaimValue(claimQuery(t, tt.path, ""))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidPath), "unexpected error: %v", err)
		})
	}
}

func TestFindMatchingClaimValue_DoesNotMutateCredential(t *testing.T) {
	cred := pidErikaDetailed(t)
	before := cred.Claims()[4].ClaimValue().String()

	_, found, err := cred.FindMatchingClaimValue(claimQuery(t, `["degrees",null,"type"]`, ""))
	require.NoError(t, err)
	require.True(t, found)

	require.Equal(t, before, cred.Claims()[4].ClaimValue().String())
}

func TestNewCredential_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mdocDocType string
		vct         string
		claims      []CredentialClaim
		wantErr     bool
	}{
		{
			name:        "mdoc",
			mdocDocType: mdlDocType,
			claims:      []CredentialClaim{mc(isoNamespace, "given_name", "Erika")},
		},
		{
			name:   "json",
			vct:    pidVCT,
			claims: []CredentialClaim{jc("given_name", `"Erika"`)},
		},
		{
			name:        "both doctype and vct",
			mdocDocType: mdlDocType,
			vct:         pidVCT,
			wantErr:     true,
		},
		{
			name:    "neither doctype nor vct",
			wantErr: true,
		},
		{
			name:        "json claim in mdoc",
			mdocDocType: mdlDocType,
			claims:      []CredentialClaim{jc("given_name", `"Erika"`)},
			wantErr:     true,
		},
		{
			name:    "mdoc claim in json credential",
			vct:     pidVCT,
			claims:  []CredentialClaim{mc(isoNamespace, "given_name", "Erika")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCredential("id", tt.mdocDocType, tt.vct, tt.claims)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCredential)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.mdocDocType != "", c.IsMdoc())
			require.Len(t, c.Claims(), len(tt.claims))
		})
	}
}

func TestMdocClaimValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "text", value: "Erika", want: `"Erika"`},
		{name: "uint", value: 48, want: "48"},
		{name: "nint", value: -3, want: "-3"},
		{name: "bool", value: true, want: "true"},
		{name: "full-date", value: FullDate("1976-03-02"), want: `1004("1976-03-02")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MustMdocClaimValue(tt.value).String())
		})
	}
}

func TestMdocClaimValueFromRaw(t *testing.T) {
	v, err := MdocClaimValueFromRaw([]byte{0x65, 'E', 'r', 'i', 'k', 'a'})
	require.NoError(t, err)
	require.True(t, v.Equal(MustMdocClaimValue("Erika")))

	_, err = MdocClaimValueFromRaw([]byte{0x65, 'E'})
	require.Error(t, err)
}

func TestJSONClaimValue_Equal(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: `{"a":1,"b":[true,null]}`, b: `{"b":[true,null],"a":1}`, want: true},
		{a: `{"a":1}`, b: `{"a":1,"b":2}`},
		{a: `[1,2]`, b: `[2,1]`},
		{a: `"x"`, b: `"x"`, want: true},
		{a: `1`, b: `"1"`},
		{a: `null`, b: `null`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			require.Equal(t, tt.want, MustJSONClaimValue(tt.a).Equal(MustJSONClaimValue(tt.b)))
		})
	}

	require.False(t, MustJSONClaimValue(`"Erika"`).Equal(MustMdocClaimValue("Erika")))
}
