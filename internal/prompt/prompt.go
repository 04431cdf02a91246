// Package prompt builds the instruction text sent to the SQL translator.
// The schema description and formatting directives live here so they can be
// tweaked without touching the pipeline.
package prompt

// Instructions is the static preamble describing the two queryable views and
// the rules the translator must follow when emitting SQL.
const Instructions = `You translate questions about clinical measurement data into PostgreSQL queries.

Only two views exist. Never reference any other relation.

View v_measurement_results:
  public_patient_id    text         -- de-identified patient code
  clinic_id            integer
  measurement          text         -- e.g. 'Hemoglobin', 'Systolic Blood Pressure'
  answer_value         numeric
  evaluation_date_time timestamptz

View v_patient_summary:
  public_patient_id    text
  clinic_id            integer
  sex                  text
  year_of_birth        integer
  enrolled_on          date

Rules, in order of precedence:
1. Match measurement names with ILIKE and surrounding wildcards, e.g. measurement ILIKE '%hemoglobin%'.
2. Whenever a measurement is projected, also project evaluation_date_time.
3. When any aggregate function is used, every non-aggregated projected column must appear in GROUP BY.
4. Every query ends with an explicit ORDER BY clause.
5. When asked for an average over time, compute a running average with AVG(answer_value) OVER (ORDER BY evaluation_date_time) AS running_average.
6. Prefer SELECT DISTINCT to avoid duplicate rows.
7. Never combine DISTINCT with GROUP BY in the same query.
8. Respond with the SQL text only: no explanation, no markdown fences, no trailing semicolon commentary.

Question: `

// Compose appends the raw question to the static instruction block. Pure
// concatenation, no validation of the question text.
func Compose(question string) string {
	return Instructions + question
}
