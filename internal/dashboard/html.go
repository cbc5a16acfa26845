package dashboard

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Codex - Duel Commander Archive</title>
    <style>
        body { font-family: 'Segoe UI', sans-serif; margin: 0; background: #10131a; color: #e6e6e6; }
        header { padding: 20px 30px; background: #181d29; border-bottom: 1px solid #2a3040; }
        h1 { margin: 0; font-size: 22px; }
        #summary { color: #8a93a6; font-size: 13px; margin-top: 6px; }
        main { padding: 20px 30px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #232938; font-size: 14px; }
        th { color: #8a93a6; font-weight: 600; }
        tr.event { cursor: pointer; }
        tr.event:hover { background: #1b2130; }
        tr.decks td { background: #151a26; color: #b8c0d0; font-size: 13px; }
        .rank { color: #e0b64f; }
    </style>
</head>
<body>
    <header>
        <h1>Duel Commander Archive</h1>
        <div id="summary">loading&hellip;</div>
    </header>
    <main>
        <table>
            <thead>
                <tr><th>Date</th><th>Tournament</th><th>Place</th><th>Players</th></tr>
            </thead>
            <tbody id="rows"></tbody>
        </table>
    </main>
    <script>
        async function refreshSummary() {
            const stats = await fetch('/api/stats').then(r => r.json());
            let text = (stats.tournaments_committed || 0) + ' tournaments committed, ' +
                (stats.decks_committed || 0) + ' decks';
            if (stats.latest_tournament) {
                text += ' - latest: ' + stats.latest_tournament.name +
                    ' (' + stats.latest_tournament.date + ')';
            }
            document.getElementById('summary').textContent = text;
        }

        async function toggleDecks(row, id) {
            const next = row.nextElementSibling;
            if (next && next.classList.contains('decks')) {
                next.remove();
                return;
            }
            const decks = await fetch('/api/decks?tournament=' + id).then(r => r.json());
            const detail = document.createElement('tr');
            detail.className = 'decks';
            const cell = document.createElement('td');
            cell.colSpan = 4;
            cell.innerHTML = decks.map(d =>
                '<span class="rank">#' + d.rank + '</span> ' + d.player +
                ' &mdash; ' + d.commanders.join(' / ')
            ).join('<br>');
            detail.appendChild(cell);
            row.after(detail);
        }

        async function loadTournaments() {
            const tournaments = await fetch('/api/tournaments').then(r => r.json());
            const body = document.getElementById('rows');
            body.innerHTML = '';
            for (const t of tournaments) {
                const row = document.createElement('tr');
                row.className = 'event';
                row.innerHTML = '<td>' + t.date + '</td><td>' + t.name +
                    '</td><td>' + t.place + '</td><td>' + t.players + '</td>';
                row.onclick = () => toggleDecks(row, t.id);
                body.appendChild(row);
            }
        }

        refreshSummary();
        loadTournaments();
        setInterval(refreshSummary, 5000);
        setInterval(loadTournaments, 30000);
    </script>
</body>
</html>`
