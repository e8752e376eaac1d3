// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

// amounts are stored as 8 byte big endian blobs, sqlite integers are signed
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	session INTEGER NOT NULL,
	type TEXT NOT NULL,
	account BLOB(20) NOT NULL,
	validator BLOB(20) NOT NULL,
	amount BLOB(8) NOT NULL,
	amountBefore BLOB(8) NOT NULL,
	amountAfter BLOB(8) NOT NULL
);

CREATE INDEX IF NOT EXISTS eventSessionIndex ON event(session);
CREATE INDEX IF NOT EXISTS eventAccountIndex ON event(account);
CREATE INDEX IF NOT EXISTS eventValidatorIndex ON event(validator);
CREATE INDEX IF NOT EXISTS eventTypeIndex ON event(type);
`
