package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create applications table
			CREATE TABLE applications (
				id VARCHAR(36) PRIMARY KEY,
				name TEXT NOT NULL CHECK (name <> ''),
				content TEXT NOT NULL CHECK (content <> ''),
				status VARCHAR(20) NOT NULL CHECK (status IN ('CREATED', 'VERIFIED', 'ACCEPTED', 'REJECTED', 'PUBLISHED', 'DELETED')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_applications_status ON applications(status);

			-- Create change_events table (append only)
			CREATE TABLE change_events (
				id VARCHAR(36) PRIMARY KEY,
				application_id VARCHAR(36) NOT NULL,
				name TEXT NOT NULL,
				content TEXT NOT NULL,
				status VARCHAR(20) NOT NULL,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
				cause TEXT
			);

			CREATE INDEX idx_change_events_application_id ON change_events(application_id, timestamp);
		`,
	}
}
