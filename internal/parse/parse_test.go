package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorJobs(t *testing.T) {
	raw := `{
		"data": {
			"jobs": [
				{"id": "1234", "name": "Backend Engineer", "jobUrl": "/job/1234", "city": "São Paulo", "publishedAt": "2026-07-01T10:00:00"},
				{"id": "1234", "name": "Backend Engineer duplicate", "jobUrl": "/job/1234-b"},
				{"jobId": "5678", "title": "Data Analyst", "url": "https://jobs.example.com/job/5678", "workplaceType": "remote"}
			]
		}
	}`

	found := VendorJobs(raw, "https://jobs.example.com/")
	require.Len(t, found, 2)

	assert.Equal(t, "Backend Engineer", found[0].Title)
	assert.Equal(t, "1234", found[0].SourceJobID)
	assert.Equal(t, "https://jobs.example.com/job/1234", found[0].URL)
	require.NotNil(t, found[0].PostedAt)
	assert.Equal(t, 2026, found[0].PostedAt.Year())

	assert.Equal(t, "5678", found[1].SourceJobID)
	assert.Equal(t, "Data Analyst", found[1].Title)
}

func TestJobPostings(t *testing.T) {
	page := `<html><head>
	<script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@type": "JobPosting",
		"title": "Platform Engineer",
		"url": "/careers/platform-engineer",
		"hiringOrganization": {"@type": "Organization", "name": "Acme Corp"},
		"jobLocation": {"address": {"addressLocality": "Campinas", "addressRegion": "SP", "addressCountry": "BR"}},
		"datePosted": "2026-06-15",
		"identifier": {"@type": "PropertyValue", "value": "REQ-991"}
	}
	</script>
	</head><body></body></html>`

	found := JobPostings(page, "https://acme.example.com/careers")
	require.Len(t, found, 1)

	job := found[0]
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, "Campinas, SP, BR", job.LocationText)
	assert.Equal(t, "https://acme.example.com/careers/platform-engineer", job.URL)
	assert.Equal(t, "REQ-991", job.SourceJobID)
	require.NotNil(t, job.PostedAt)
}

func TestJobPostingsIdentifierFallback(t *testing.T) {
	page := `<script type="application/ld+json">
	{"@type": ["JobPosting"], "title": "QA Analyst", "url": "https://acme.example.com/jobs/qa"}
	</script>`

	found := JobPostings(page, "https://acme.example.com/")
	require.Len(t, found, 1)
	assert.True(t, strings.HasPrefix(found[0].SourceJobID, "url:"))
	assert.Len(t, found[0].SourceJobID, len("url:")+16)
	assert.Equal(t, "Unknown", found[0].Company)
}

func TestBoardJobsFromAnchors(t *testing.T) {
	page := `<div class="vaga">
		<a href="/vaga-de-desenvolvedor-java__7012345.aspx">Desenvolvedor Java Pleno</a>
		<span>Empresa: Banco Exemplo</span>
		<span>Local: Curitiba, PR</span>
		<span>Salário: R$ 6.000,00</span>
	</div>
	<a href="/sobre-nos">Sobre nós</a>`

	found := BoardJobs(page, "https://board.example.com/empregos", IsBoardJobURL)
	require.Len(t, found, 1)

	job := found[0]
	assert.Equal(t, "Desenvolvedor Java Pleno", job.Title)
	assert.Equal(t, "Banco Exemplo", job.Company)
	assert.Contains(t, job.LocationText, "Curitiba")
	assert.Contains(t, job.SalaryText, "6.000,00")
	assert.True(t, strings.HasPrefix(job.URL, "https://board.example.com/"))
}

func TestStableSourceJobID(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{
			name: "slug digits win",
			job:  Job{URL: "https://board.example.com/vaga-de-analista__7012345.aspx", SourceJobID: "other"},
			want: "7012345",
		},
		{
			name: "parser id next",
			job:  Job{URL: "https://board.example.com/jobs/listing", SourceJobID: "abc-1"},
			want: "abc-1",
		},
		{
			name: "query parameter",
			job:  Job{URL: "https://board.example.com/view?iv=99887"},
			want: "99887",
		},
		{
			name: "path digit run",
			job:  Job{URL: "https://board.example.com/posting/123456/view"},
			want: "123456",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StableSourceJobID(tt.job))
		})
	}

	t.Run("url hash fallback", func(t *testing.T) {
		got := StableSourceJobID(Job{URL: "https://board.example.com/careers/something"})
		assert.True(t, strings.HasPrefix(got, "url:"))
		assert.Equal(t, got, StableSourceJobID(Job{URL: "https://board.example.com/careers/something"}))
	})
}

func TestWorkdayListing(t *testing.T) {
	raw := `{
		"total": 2,
		"jobPostings": [
			{"title": "Software Engineer", "externalPath": "/job/Sao-Paulo/Software-Engineer_R-100200", "locationsText": "São Paulo, Brazil", "postedOn": "2026-05-20", "timeType": "Full time"},
			{"jobTitle": "Consultant", "id": "R-300400", "bulletFields": ["R-300400", "Rio de Janeiro, Brazil"]},
			{"externalPath": "/job/Nowhere/Untitled_R-1"}
		]
	}`

	items := WorkdayListing(raw, "acme.wd3.myworkdayjobs.com", "/en-US/acmecareers", "acmecareers")
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Software Engineer", first.Title)
	assert.Equal(t, "Software-Engineer_R-100200", first.SourceJobID)
	assert.Equal(t, "https://acme.wd3.myworkdayjobs.com/job/Sao-Paulo/Software-Engineer_R-100200", first.SourceURL)
	assert.Equal(t, "São Paulo, Brazil", first.LocationText)
	assert.Equal(t, "Full time", first.EmploymentTypeText)
	require.NotNil(t, first.PostedAt)

	second := items[1]
	assert.Equal(t, "R-300400", second.SourceJobID)
	assert.Equal(t, "Rio de Janeiro, Brazil", second.LocationText)
	assert.Equal(t, "https://acme.wd3.myworkdayjobs.com/en-US/acmecareers/job/R-300400", second.SourceURL)
}

func TestWorkdayDetailPath(t *testing.T) {
	tests := []struct {
		name         string
		externalPath string
		sourceJobID  string
		want         string
	}{
		{
			name:         "job external path",
			externalPath: "/job/Sao-Paulo/Engineer_R-1",
			want:         "/wday/cxs/acme/acmecareers/job/Sao-Paulo/Engineer_R-1",
		},
		{
			name:         "already cxs path",
			externalPath: "/wday/cxs/acme/acmecareers/job/Engineer_R-1",
			want:         "/wday/cxs/acme/acmecareers/job/Engineer_R-1",
		},
		{
			name:        "id fallback",
			sourceJobID: "R-55",
			want:        "/wday/cxs/acme/acmecareers/job/R-55",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkdayDetailPath("acme", "acmecareers", tt.externalPath, tt.sourceJobID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkdayDetailDescription(t *testing.T) {
	raw := `{"jobPostingInfo": {
		"jobDescription": "<p>Build and run distributed ingestion services. Work with product teams.</p>",
		"description": "short"
	}}`

	got := WorkdayDetailDescription(raw)
	assert.Contains(t, got, "distributed ingestion services")
	assert.NotContains(t, got, "<p>")
}

func TestCareerAnchorJobs(t *testing.T) {
	page := `<ul>
		<li><a href="/jobs/backend-developer">Backend Developer</a> <span>Remoto</span></li>
		<li><a href="https://careers.example.com/oportunidade/analista-dados">Analista de Dados</a> <span>Joinville, SC</span></li>
		<li><a href="javascript:void(0)">Ver mais</a></li>
		<li><a href="/about">FAQ</a></li>
	</ul>`

	found := CareerAnchorJobs(page, "https://careers.example.com/")
	require.Len(t, found, 2)
	assert.Equal(t, "Backend Developer", found[0].Title)
	assert.Equal(t, "Remoto", found[0].LocationText)
	assert.Equal(t, "Joinville, SC", found[1].LocationText)
	for _, job := range found {
		assert.True(t, strings.HasPrefix(job.URL, "https://"))
	}
}

func TestDetailDescription(t *testing.T) {
	page := `<html><body>
	<script>var tracker = "noise";</script>
	<div class="nav">Menu Home Vagas Contato</div>
	<section>
		<h2>Descrição da Vaga</h2>
		Atuar no desenvolvimento de serviços de ingestão de dados, integração com APIs
		externas e manutenção de pipelines. Requisitos: experiência com Go e PostgreSQL,
		conhecimento de sistemas distribuídos e boas práticas de observabilidade em produção.
	</section>
	</body></html>`

	got := DetailDescription(page)
	assert.Contains(t, got, "serviços de ingestão")
	assert.NotContains(t, got, "tracker")
	assert.NotContains(t, got, "Menu Home")
}

func TestDetailDescriptionFallsBackToWholePage(t *testing.T) {
	page := `<p>Oportunidade para trabalhar com infraestrutura.</p>`
	got := DetailDescription(page)
	assert.Equal(t, "Oportunidade para trabalhar com infraestrutura.", got)
}

func TestSalaryRange(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantNil  bool
		wantMin  float64
		wantMax  float64
		currency string
		period   string
	}{
		{
			name:     "brl range per month",
			text:     "R$ 3.500,00 a R$ 5.000,00 por mês",
			wantMin:  3500,
			wantMax:  5000,
			currency: "BRL",
			period:   "month",
		},
		{
			name:     "single amount",
			text:     "Salário: R$ 4200",
			wantMin:  4200,
			wantMax:  4200,
			currency: "BRL",
		},
		{
			name:    "plain thousands dot",
			text:    "até 6.000 mensal",
			wantMin: 6000,
			wantMax: 6000,
			period:  "month",
		},
		{
			name:    "no amounts",
			text:    "A combinar",
			wantNil: true,
		},
		{
			name:    "empty",
			text:    "   ",
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SalaryRange(tt.text)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.NotNil(t, got.Min)
			require.NotNil(t, got.Max)
			assert.Equal(t, tt.wantMin, *got.Min)
			assert.Equal(t, tt.wantMax, *got.Max)
			assert.Equal(t, tt.currency, got.Currency)
			assert.Equal(t, tt.period, got.Period)
		})
	}
}
