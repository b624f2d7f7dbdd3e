package skills

// Entry is one canonical skill and the spellings that refer to it.
// Exact spellings only match with the same letter case; they cover names
// that collide with ordinary English words.
type Entry struct {
	Name    string
	Aliases []string
	Exact   []string
}

var defaultCatalog = []Entry{
	// languages
	{Name: "Go", Aliases: []string{"golang", "go lang"}, Exact: []string{"Go"}},
	{Name: "Python", Aliases: []string{"python", "python3"}},
	{Name: "Java", Aliases: []string{"java"}},
	{Name: "Kotlin", Aliases: []string{"kotlin"}},
	{Name: "Scala", Aliases: []string{"scala"}},
	{Name: "JavaScript", Aliases: []string{"javascript", "ecmascript", "es6"}, Exact: []string{"JS"}},
	{Name: "TypeScript", Aliases: []string{"typescript"}, Exact: []string{"TS"}},
	{Name: "C++", Aliases: []string{"c++", "cpp"}},
	{Name: "C#", Aliases: []string{"c#", "csharp"}},
	{Name: "Rust", Aliases: []string{"rust", "rustlang"}},
	{Name: "Ruby", Aliases: []string{"ruby"}},
	{Name: "PHP", Aliases: []string{"php"}},
	{Name: "Swift", Aliases: []string{"swift"}},
	{Name: "Objective-C", Aliases: []string{"objective-c", "objc"}},
	{Name: "Elixir", Aliases: []string{"elixir"}},
	{Name: "Haskell", Aliases: []string{"haskell"}},
	{Name: "Bash", Aliases: []string{"bash", "shell scripting"}},
	{Name: "SQL", Aliases: []string{"sql"}},
	{Name: "MATLAB", Aliases: []string{"matlab"}},
	{Name: "Dart", Aliases: []string{"dart"}},

	// frontend
	{Name: "React", Aliases: []string{"react", "reactjs", "react.js"}},
	{Name: "React Native", Aliases: []string{"react native"}},
	{Name: "Next.js", Aliases: []string{"next.js", "nextjs"}},
	{Name: "Vue", Aliases: []string{"vue", "vuejs", "vue.js"}},
	{Name: "Angular", Aliases: []string{"angular", "angularjs"}},
	{Name: "Svelte", Aliases: []string{"svelte"}},
	{Name: "Redux", Aliases: []string{"redux"}},
	{Name: "HTML", Aliases: []string{"html", "html5"}},
	{Name: "CSS", Aliases: []string{"css", "css3"}},
	{Name: "Tailwind CSS", Aliases: []string{"tailwind", "tailwindcss", "tailwind css"}},
	{Name: "Sass", Aliases: []string{"sass", "scss"}},
	{Name: "Webpack", Aliases: []string{"webpack"}},
	{Name: "Flutter", Aliases: []string{"flutter"}},

	// backend
	{Name: "Node.js", Aliases: []string{"node.js", "nodejs", "node js"}},
	{Name: "Express", Aliases: []string{"express.js", "expressjs"}},
	{Name: "Django", Aliases: []string{"django"}},
	{Name: "Flask", Aliases: []string{"flask"}},
	{Name: "FastAPI", Aliases: []string{"fastapi"}},
	{Name: "Spring Boot", Aliases: []string{"spring boot", "springboot"}},
	{Name: "Spring", Aliases: []string{"spring framework"}},
	{Name: "Ruby on Rails", Aliases: []string{"ruby on rails", "rails"}},
	{Name: ".NET", Aliases: []string{".net", "dotnet", "asp.net"}},
	{Name: "GraphQL", Aliases: []string{"graphql"}},
	{Name: "REST APIs", Aliases: []string{"rest api", "rest apis", "restful"}},
	{Name: "gRPC", Aliases: []string{"grpc"}},
	{Name: "Microservices", Aliases: []string{"microservices", "microservice architecture"}},

	// data
	{Name: "PostgreSQL", Aliases: []string{"postgresql", "postgres", "psql"}},
	{Name: "MySQL", Aliases: []string{"mysql"}},
	{Name: "MongoDB", Aliases: []string{"mongodb", "mongo"}},
	{Name: "Redis", Aliases: []string{"redis"}},
	{Name: "Elasticsearch", Aliases: []string{"elasticsearch", "elastic search", "opensearch"}},
	{Name: "Cassandra", Aliases: []string{"cassandra"}},
	{Name: "DynamoDB", Aliases: []string{"dynamodb"}},
	{Name: "SQLite", Aliases: []string{"sqlite"}},
	{Name: "Kafka", Aliases: []string{"kafka", "apache kafka"}},
	{Name: "RabbitMQ", Aliases: []string{"rabbitmq"}},
	{Name: "Spark", Aliases: []string{"apache spark", "pyspark", "spark"}},
	{Name: "Hadoop", Aliases: []string{"hadoop"}},
	{Name: "Airflow", Aliases: []string{"airflow"}},
	{Name: "Snowflake", Aliases: []string{"snowflake"}},
	{Name: "BigQuery", Aliases: []string{"bigquery"}},
	{Name: "dbt", Aliases: []string{"dbt"}},
	{Name: "ETL", Aliases: []string{"etl", "elt"}},
	{Name: "Data Modeling", Aliases: []string{"data modeling", "data modelling"}},

	// cloud and infrastructure
	{Name: "AWS", Aliases: []string{"aws", "amazon web services"}},
	{Name: "GCP", Aliases: []string{"gcp", "google cloud", "google cloud platform"}},
	{Name: "Azure", Aliases: []string{"azure", "microsoft azure"}},
	{Name: "Docker", Aliases: []string{"docker", "dockerfile"}},
	{Name: "Kubernetes", Aliases: []string{"kubernetes", "k8s"}},
	{Name: "Helm", Aliases: []string{"helm"}},
	{Name: "Terraform", Aliases: []string{"terraform"}},
	{Name: "Pulumi", Aliases: []string{"pulumi"}},
	{Name: "Ansible", Aliases: []string{"ansible"}},
	{Name: "Linux", Aliases: []string{"linux", "unix"}},
	{Name: "Nginx", Aliases: []string{"nginx"}},
	{Name: "CI/CD", Aliases: []string{"ci/cd", "cicd", "continuous integration", "continuous delivery", "continuous deployment"}},
	{Name: "GitHub Actions", Aliases: []string{"github actions"}},
	{Name: "Jenkins", Aliases: []string{"jenkins"}},
	{Name: "GitLab CI", Aliases: []string{"gitlab ci", "gitlab-ci"}},
	{Name: "Git", Aliases: []string{"git"}},
	{Name: "Prometheus", Aliases: []string{"prometheus"}},
	{Name: "Grafana", Aliases: []string{"grafana"}},
	{Name: "Observability", Aliases: []string{"observability", "monitoring"}},
	{Name: "Serverless", Aliases: []string{"serverless", "aws lambda"}},

	// ML and AI
	{Name: "Machine Learning", Aliases: []string{"machine learning"}, Exact: []string{"ML"}},
	{Name: "Deep Learning", Aliases: []string{"deep learning"}},
	{Name: "TensorFlow", Aliases: []string{"tensorflow"}},
	{Name: "PyTorch", Aliases: []string{"pytorch"}},
	{Name: "scikit-learn", Aliases: []string{"scikit-learn", "sklearn"}},
	{Name: "Pandas", Aliases: []string{"pandas"}},
	{Name: "NumPy", Aliases: []string{"numpy"}},
	{Name: "NLP", Aliases: []string{"nlp", "natural language processing"}},
	{Name: "Computer Vision", Aliases: []string{"computer vision"}},
	{Name: "LLMs", Aliases: []string{"llm", "llms", "large language models"}},
	{Name: "Data Analysis", Aliases: []string{"data analysis", "data analytics"}},
	{Name: "Statistics", Aliases: []string{"statistics", "statistical analysis"}},

	// practices
	{Name: "Agile", Aliases: []string{"agile", "scrum", "kanban"}},
	{Name: "TDD", Aliases: []string{"tdd", "test-driven development", "test driven development"}},
	{Name: "Unit Testing", Aliases: []string{"unit testing", "unit tests"}},
	{Name: "System Design", Aliases: []string{"system design", "distributed systems"}},
	{Name: "Security", Aliases: []string{"security", "application security", "appsec"}},
	{Name: "OAuth", Aliases: []string{"oauth", "oauth2", "openid connect"}},
	{Name: "Performance Optimization", Aliases: []string{"performance optimization", "performance tuning"}},
	{Name: "Code Review", Aliases: []string{"code review", "code reviews"}},
	{Name: "Figma", Aliases: []string{"figma"}},
	{Name: "Jira", Aliases: []string{"jira"}},

	// soft skills
	{Name: "Communication", Aliases: []string{"communication", "communication skills", "communicator"}},
	{Name: "Leadership", Aliases: []string{"leadership", "team lead", "tech lead"}},
	{Name: "Teamwork", Aliases: []string{"teamwork", "team player", "collaboration"}},
	{Name: "Mentoring", Aliases: []string{"mentoring", "mentorship", "coaching"}},
	{Name: "Problem Solving", Aliases: []string{"problem solving", "problem-solving"}},
	{Name: "Project Management", Aliases: []string{"project management"}},
	{Name: "Stakeholder Management", Aliases: []string{"stakeholder management", "stakeholders"}},
	{Name: "Time Management", Aliases: []string{"time management"}},
}

// DefaultCatalog returns a copy of the built-in skill catalog.
func DefaultCatalog() []Entry {
	out := make([]Entry, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
