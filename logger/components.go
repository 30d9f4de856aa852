/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger

// Component names used as logger names.
const (
	ComponentConnection = "connection"
	ComponentStorage    = "storage"
	ComponentStatements = "statements"
	ComponentSetup      = "setup"
	ComponentService    = "service"
	ComponentCLI        = "cli"
)
